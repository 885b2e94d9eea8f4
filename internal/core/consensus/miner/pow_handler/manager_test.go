package pow_handler

import (
	"bytes"
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/powminer/internal/core/consensus/testutil"
	"github.com/weisyn/powminer/pkg/types"
)

// regtestBits 回归测试网络的最低难度
const regtestBits = 0x207fffff

func testHeader() *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{0xaa},
		MerkleRoot: chainhash.Hash{0xbb},
		Timestamp:  time.Unix(1_700_000_000, 0),
		Bits:       regtestBits,
	}
}

func TestSearchNonce_WithEasyTarget_FindsValidNonce(t *testing.T) {
	hdr := testHeader()
	target := blockchain.CompactToBig(regtestBits)

	nonce, found := SearchNonce(testutil.SerializeHeader(hdr), target, 0, 1_000)

	require.True(t, found)
	hdr.Nonce = nonce
	assert.True(t, VerifyHeader(hdr, target))
}

func TestSearchNonce_ReturnsFirstMatchInRange(t *testing.T) {
	hdr := testHeader()
	target := blockchain.CompactToBig(regtestBits)
	header := testutil.SerializeHeader(hdr)
	first, found := SearchNonce(header, target, 0, 1_000)
	require.True(t, found)

	// 从命中点之后开始搜索，结果不可能早于起点
	next, found := SearchNonce(header, target, uint64(first)+1, 1_000)

	require.True(t, found)
	assert.Greater(t, next, first)
}

func TestSearchNonce_WithImpossibleTarget_ReturnsNotFound(t *testing.T) {
	header := testutil.SerializeHeader(testHeader())

	_, found := SearchNonce(header, big.NewInt(0), 0, 500)

	assert.False(t, found)
}

func TestSearchNonce_DoesNotMutateHeader(t *testing.T) {
	header := testutil.SerializeHeader(testHeader())
	original := append([]byte(nil), header...)

	SearchNonce(header, blockchain.CompactToBig(regtestBits), 0, 100)

	assert.True(t, bytes.Equal(original, header))
}

func TestSearchNonce_ClampsUpperBoundToNonceSpace(t *testing.T) {
	header := testutil.SerializeHeader(testHeader())
	// 全 1 的目标让任何哈希都命中
	maxTarget := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	nonce, found := SearchNonce(header, maxTarget, MaxNonce, MaxNonce+1_000)
	assert.True(t, found)
	assert.Equal(t, uint32(MaxNonce), nonce)

	_, found = SearchNonce(header, maxTarget, MaxNonce+1, MaxNonce+1_000)
	assert.False(t, found)
}

func TestSearchNonce_WithMalformedHeader_ReturnsNotFound(t *testing.T) {
	_, found := SearchNonce([]byte{1, 2, 3}, big.NewInt(1), 0, 10)

	assert.False(t, found)
}

func TestSplitRange_CoversRangeContiguously(t *testing.T) {
	chunks := splitRange(10, 107, 4)

	require.Len(t, chunks, 4)
	assert.Equal(t, uint64(10), chunks[0][0])
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1][1], chunks[i][0])
	}
	assert.Equal(t, uint64(107), chunks[len(chunks)-1][1])
}

func TestSplitRange_WithMoreWorkersThanNonces_UsesOneChunkPerNonce(t *testing.T) {
	chunks := splitRange(0, 3, 8)

	assert.Equal(t, [][2]uint64{{0, 1}, {1, 2}, {2, 3}}, chunks)
}

func startedService(t *testing.T, workers int, searcher func([]byte, *big.Int, uint64, uint64) (uint32, bool)) *PoWComputeService {
	t.Helper()
	s := NewPoWComputeService(&testutil.MockLogger{}, searcher)
	require.NoError(t, s.StartPoWEngine(context.Background(), types.MiningParameters{Workers: workers}))
	t.Cleanup(func() { _ = s.StopPoWEngine(context.Background()) })
	return s
}

func TestSearch_WithMultipleHits_ReturnsLowestNonce(t *testing.T) {
	// 每个分片都返回自己范围内第一个 1000 的倍数
	multipleOf1000 := func(_ []byte, _ *big.Int, min, max uint64) (uint32, bool) {
		for n := min; n < max; n++ {
			if n > 0 && n%1000 == 0 {
				return uint32(n), true
			}
		}
		return 0, false
	}
	s := startedService(t, 4, multipleOf1000)

	nonce, found, err := s.Search(context.Background(), nil, nil, 1, 10_000)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(1000), nonce)
}

func TestSearch_CoversEveryNonceExactlyOnce(t *testing.T) {
	var scanned atomic.Uint64
	counter := func(_ []byte, _ *big.Int, min, max uint64) (uint32, bool) {
		scanned.Add(max - min)
		return 0, false
	}
	s := startedService(t, 3, counter)

	_, found, err := s.Search(context.Background(), nil, nil, 100, 1_100)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, uint64(1_000), scanned.Load())
}

func TestSearch_WithRealPrimitive_FindsVerifiableNonce(t *testing.T) {
	s := startedService(t, 2, nil)
	hdr := testHeader()
	target := blockchain.CompactToBig(regtestBits)

	nonce, found, err := s.Search(context.Background(), testutil.SerializeHeader(hdr), target, 0, 10_000)

	require.NoError(t, err)
	require.True(t, found)
	hdr.Nonce = nonce
	assert.True(t, VerifyHeader(hdr, target))
}

func TestSearch_WhenNotRunning_ReturnsError(t *testing.T) {
	s := NewPoWComputeService(&testutil.MockLogger{}, nil)

	_, _, err := s.Search(context.Background(), nil, nil, 0, 10)

	assert.ErrorIs(t, err, ErrPoolNotRunning)
}

func TestStartStop_IsIdempotentAndRestartable(t *testing.T) {
	s := NewPoWComputeService(&testutil.MockLogger{}, nil)
	ctx := context.Background()

	require.NoError(t, s.StartPoWEngine(ctx, types.MiningParameters{Workers: 2}))
	require.NoError(t, s.StartPoWEngine(ctx, types.MiningParameters{Workers: 5}))
	assert.True(t, s.IsRunning())
	assert.Equal(t, 2, s.Workers())

	require.NoError(t, s.StopPoWEngine(ctx))
	require.NoError(t, s.StopPoWEngine(ctx))
	assert.False(t, s.IsRunning())

	require.NoError(t, s.StartPoWEngine(ctx, types.MiningParameters{Workers: 1}))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.StopPoWEngine(ctx))
}

func TestStartPoWEngine_WithZeroWorkers_UsesCPUCount(t *testing.T) {
	s := startedService(t, 0, nil)

	assert.Greater(t, s.Workers(), 0)
}

func TestStartPoWEngine_WithNegativeWorkers_ReturnsError(t *testing.T) {
	s := NewPoWComputeService(&testutil.MockLogger{}, nil)

	err := s.StartPoWEngine(context.Background(), types.MiningParameters{Workers: -1})

	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}
