package event_handler

import (
	"context"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventconfig "github.com/weisyn/powminer/internal/config/event"
	"github.com/weisyn/powminer/internal/core/consensus/testutil"
	eventimpl "github.com/weisyn/powminer/internal/core/infrastructure/event"
	"github.com/weisyn/powminer/pkg/types"
)

// recordingController 记录通知的控制器
type recordingController struct {
	mu      sync.Mutex
	tips    []*types.ChainEntry
	mempool int
}

func (c *recordingController) StartMining(ctx context.Context, address btcutil.Address) error {
	return nil
}
func (c *recordingController) StopMining(ctx context.Context) error { return nil }
func (c *recordingController) GetMiningStatus(ctx context.Context) (*types.MiningStatus, error) {
	return &types.MiningStatus{}, nil
}
func (c *recordingController) NotifyMempoolEntry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mempool++
}
func (c *recordingController) OnTipChanged(tip *types.ChainEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tips = append(c.tips, tip)
}

func newHandler(t *testing.T) (*MinerEventHandlerService, *eventimpl.EventBus, *recordingController) {
	t.Helper()
	bus := eventimpl.New(eventconfig.New(nil))
	ctrl := &recordingController{}
	return NewMinerEventHandlerService(&testutil.MockLogger{}, bus, ctrl), bus, ctrl
}

func TestRegisterEventSubscriptions_ForwardsTipAndMempoolEvents(t *testing.T) {
	h, bus, ctrl := newHandler(t)
	require.NoError(t, h.RegisterEventSubscriptions())

	tip := &types.ChainEntry{Hash: chainhash.Hash{2}, PrevHash: chainhash.Hash{1}, Height: 2}
	bus.Publish(types.EventTypeTipChanged, &types.TipChangedEventData{Tip: tip})
	bus.Publish(types.EventTypeMempoolEntry, &types.MempoolEntryEventData{})
	bus.Publish(types.EventTypeMempoolEntry, &types.MempoolEntryEventData{})

	require.Len(t, ctrl.tips, 1)
	assert.Same(t, tip, ctrl.tips[0])
	assert.Equal(t, 2, ctrl.mempool)
}

func TestRegisterEventSubscriptions_Twice_SubscribesOnce(t *testing.T) {
	h, bus, ctrl := newHandler(t)
	require.NoError(t, h.RegisterEventSubscriptions())
	require.NoError(t, h.RegisterEventSubscriptions())

	bus.Publish(types.EventTypeMempoolEntry, &types.MempoolEntryEventData{})

	assert.Equal(t, 1, ctrl.mempool)
}

func TestUnregisterEventSubscriptions_StopsForwarding(t *testing.T) {
	h, bus, ctrl := newHandler(t)
	require.NoError(t, h.RegisterEventSubscriptions())
	require.NoError(t, h.UnregisterEventSubscriptions())

	bus.Publish(types.EventTypeMempoolEntry, &types.MempoolEntryEventData{})

	assert.Zero(t, ctrl.mempool)
	assert.False(t, bus.HasCallback(types.EventTypeTipChanged))
}

func TestHandleTipChanged_WithNilTip_IsIgnored(t *testing.T) {
	ctrl := &recordingController{}
	h := newChainEventsHandler(nil, ctrl)

	h.handleTipChanged(nil)
	h.handleTipChanged(&types.TipChangedEventData{})

	assert.Empty(t, ctrl.tips)
}

func TestRegisterEventSubscriptions_WithoutBus_ReturnsError(t *testing.T) {
	h := NewMinerEventHandlerService(nil, nil, &recordingController{})

	assert.Error(t, h.RegisterEventSubscriptions())
}
