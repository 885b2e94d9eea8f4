package event_handler

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/powminer/internal/core/consensus/testutil"
	"github.com/weisyn/powminer/internal/core/mempool/txpool"
	"github.com/weisyn/powminer/pkg/types"
)

type recordingRemover struct {
	blocks []*btcutil.Block
}

func (r *recordingRemover) RemoveConfirmed(block *btcutil.Block) int {
	r.blocks = append(r.blocks, block)
	return len(block.Transactions())
}

func testBlock() *btcutil.Block {
	msg := wire.NewMsgBlock(&wire.BlockHeader{})
	_ = msg.AddTransaction(testutil.CoinbaseTx(1, 50, []byte{txscript.OP_TRUE}))
	return btcutil.NewBlock(msg)
}

func TestRegister_SubscribesTipChangedOnce(t *testing.T) {
	bus := testutil.NewMockEventBus()
	handler := NewTxPoolEventHandler(&testutil.MockLogger{}, bus, &recordingRemover{})

	require.NoError(t, handler.Register())
	require.NoError(t, handler.Register())
	assert.True(t, bus.HasCallback(types.EventTypeTipChanged))

	require.NoError(t, handler.Unregister())
	assert.False(t, bus.HasCallback(types.EventTypeTipChanged))
	assert.NoError(t, handler.Unregister())
}

func TestRegister_WithoutBus_ReturnsError(t *testing.T) {
	handler := NewTxPoolEventHandler(nil, nil, &recordingRemover{})
	assert.Error(t, handler.Register())
}

func TestHandleTipChanged_ForwardsBlock(t *testing.T) {
	remover := &recordingRemover{}
	handler := NewTxPoolEventHandler(&testutil.MockLogger{}, testutil.NewMockEventBus(), remover)

	block := testBlock()
	handler.handleTipChanged(&types.TipChangedEventData{Tip: &types.ChainEntry{Height: 1}, Block: block})
	handler.handleTipChanged(&types.TipChangedEventData{Tip: &types.ChainEntry{Height: 2}})
	handler.handleTipChanged(nil)

	require.Len(t, remover.blocks, 1)
	assert.Equal(t, block, remover.blocks[0])
}

func TestTxEventSink_PublishesMempoolEntry(t *testing.T) {
	bus := testutil.NewMockEventBus()
	sink := NewTxEventSink(bus, &testutil.MockLogger{})

	tx := btcutil.NewTx(testutil.OpTrueSpend(wire.OutPoint{Hash: chainhash.Hash{0x01}}, 10))
	desc := &types.TxDesc{Tx: tx}
	sink.OnTxAdded(desc)
	sink.OnTxRemoved(desc)

	events := bus.Events(types.EventTypeMempoolEntry)
	require.Len(t, events, 1)
	data := events[0].Args[0].(*types.MempoolEntryEventData)
	assert.Equal(t, tx, data.Tx)
}

func TestNewTxEventSink_WithoutBus_ReturnsNoop(t *testing.T) {
	sink := NewTxEventSink(nil, nil)
	assert.IsType(t, txpool.NoopTxEventSink{}, sink)
}
