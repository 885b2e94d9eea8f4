package job

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/powminer/internal/core/consensus/testutil"
	clockimpl "github.com/weisyn/powminer/internal/core/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/types"
)

func newTestJob(t *testing.T) (*MiningJob, *testutil.FakeAttempt, *clockimpl.MockClock) {
	t.Helper()
	clk := clockimpl.NewMockClock(time.Unix(1_700_000_000, 0))
	attempt := testutil.NewFakeAttempt(chainhash.Hash{1}, 10)
	return New(attempt, clk), attempt, clk
}

func TestUpdateExtraNonce_WithLowAtMax_CarriesIntoHigh(t *testing.T) {
	j, _, _ := newTestJob(t)
	j.extraNonceLo = 0xFFFFFFFF

	j.UpdateExtraNonce()

	hi, lo := j.ExtraNonce()
	assert.Equal(t, uint32(1), hi)
	assert.Equal(t, uint32(0), lo)
}

func TestUpdateExtraNonce_FullLowRange_IncrementsHighExactlyOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("遍历 2^32 次，短模式跳过")
	}
	j, _, _ := newTestJob(t)

	for i := uint64(0); i < 1<<32; i++ {
		j.UpdateExtraNonce()
	}

	hi, lo := j.ExtraNonce()
	assert.Equal(t, uint32(1), hi)
	assert.Equal(t, uint32(0), lo)
}

func TestIterate_AdvancesIterationsAndExtraNonce(t *testing.T) {
	j, _, _ := newTestJob(t)

	j.Iterate()
	j.Iterate()

	hi, lo := j.ExtraNonce()
	assert.Equal(t, uint64(2), j.Iterations())
	assert.Equal(t, uint32(0), hi)
	assert.Equal(t, uint32(2), lo)
}

func TestHeaderBytes_ReflectsCurrentExtraNonce(t *testing.T) {
	j, attempt, _ := newTestJob(t)
	j.Iterate()

	header := j.HeaderBytes()

	require.Len(t, header, wire.MaxBlockHeaderPayload)
	hi, lo := testutil.ExtraNonceFromHeader(header)
	assert.Equal(t, uint32(0), hi)
	assert.Equal(t, uint32(1), lo)
	var hdr wire.BlockHeader
	require.NoError(t, hdr.Deserialize(bytes.NewReader(header)))
	assert.Equal(t, attempt.Parent, hdr.PrevBlock)
	assert.Equal(t, uint32(0), hdr.Nonce)
	assert.Equal(t, attempt.Time.Unix(), hdr.Timestamp.Unix())
}

func TestCommit_BuildsProofFromCurrentState(t *testing.T) {
	j, attempt, _ := newTestJob(t)
	j.Iterate()

	block, err := j.Commit(77)

	require.NoError(t, err)
	require.NotNil(t, block)
	proofs := attempt.CommittedProofs()
	require.Len(t, proofs, 1)
	assert.Equal(t, uint32(77), proofs[0].Nonce)
	assert.Equal(t, uint64(1), proofs[0].ExtraNonce())
	assert.Equal(t, uint32(77), block.MsgBlock().Header.Nonce)
	assert.True(t, j.IsCommitted())
}

func TestCommit_Twice_ReturnsContractViolation(t *testing.T) {
	j, attempt, _ := newTestJob(t)
	_, err := j.Commit(1)
	require.NoError(t, err)

	_, err = j.Commit(2)

	assert.ErrorIs(t, err, types.ErrContractViolation)
	assert.ErrorIs(t, err, ErrJobAlreadyCommitted)
	assert.Len(t, attempt.CommittedProofs(), 1)
}

func TestDestroy_Twice_ReturnsContractViolation(t *testing.T) {
	j, _, _ := newTestJob(t)
	require.NoError(t, j.Destroy())

	err := j.Destroy()

	assert.ErrorIs(t, err, types.ErrContractViolation)
	assert.ErrorIs(t, err, ErrJobAlreadyDestroyed)
	assert.True(t, j.IsDestroyed())
}

func TestCommitAndDestroy_AreMutuallyExclusive(t *testing.T) {
	t.Run("destroyed job cannot be committed", func(t *testing.T) {
		j, attempt, _ := newTestJob(t)
		require.NoError(t, j.Destroy())

		_, err := j.Commit(5)

		assert.ErrorIs(t, err, ErrCommitDestroyedJob)
		assert.False(t, j.IsCommitted())
		assert.Empty(t, attempt.CommittedProofs())
	})

	t.Run("committed job cannot be destroyed", func(t *testing.T) {
		j, _, _ := newTestJob(t)
		_, err := j.Commit(5)
		require.NoError(t, err)

		err = j.Destroy()

		assert.ErrorIs(t, err, ErrDestroyCommittedJob)
		assert.False(t, j.IsDestroyed())
	})
}

func TestCommit_WithAttemptFailure_ReturnsError(t *testing.T) {
	j, attempt, _ := newTestJob(t)
	attempt.CommitErr = errors.New("template gone")

	_, err := j.Commit(1)

	assert.EqualError(t, err, "template gone")
}

func TestHashRate_TwoMillionOverTwoSeconds_IsOneMillion(t *testing.T) {
	j, _, clk := newTestJob(t)
	j.MarkStart()
	clk.Advance(2 * time.Second)

	assert.Equal(t, uint64(1_000_000), j.HashRate(2_000_000))
}

func TestHashRate_FloorsFraction(t *testing.T) {
	j, _, clk := newTestJob(t)
	j.MarkStart()
	clk.Advance(3 * time.Second)

	assert.Equal(t, uint64(3), j.HashRate(10))
}

func TestHashRate_WithNoElapsedTime_ReturnsZero(t *testing.T) {
	j, _, _ := newTestJob(t)
	j.MarkStart()

	assert.Equal(t, uint64(0), j.HashRate(1_000))
}

func TestHashCount_AfterTwoGenerations_AddsPartialNonce(t *testing.T) {
	j, _, _ := newTestJob(t)
	j.Iterate()
	j.Iterate()

	assert.Equal(t, uint64(2*0x100000000+500), j.HashCount(500))
}

func TestTemplateDelegation_ForwardsToAttempt(t *testing.T) {
	j, attempt, _ := newTestJob(t)
	tx := btcutil.NewTx(wire.NewMsgTx(wire.TxVersion))

	require.NoError(t, j.Refresh())
	require.NoError(t, j.AddTX(tx, blockchain.NewUtxoViewpoint()))
	require.NoError(t, j.PushTX(tx, nil))

	assert.Equal(t, 1, attempt.Refreshes)
	assert.Len(t, attempt.Added, 1)
	assert.Len(t, attempt.Pushed, 1)
}

func TestNew_AssignsUniqueIDs(t *testing.T) {
	a, _, _ := newTestJob(t)
	b, _, _ := newTestJob(t)

	assert.NotEqual(t, a.ID(), b.ID())
}
