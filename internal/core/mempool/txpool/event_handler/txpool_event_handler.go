package event_handler

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// ConfirmedTxRemover 可按区块移除已确认交易的交易池
type ConfirmedTxRemover interface {
	RemoveConfirmed(block *btcutil.Block) int
}

// TxPoolEventHandler 交易池入站事件处理器
type TxPoolEventHandler struct {
	logger   log.Logger
	eventBus event.EventBus
	pool     ConfirmedTxRemover

	mu         sync.Mutex
	registered bool
}

// NewTxPoolEventHandler 创建交易池事件处理器
func NewTxPoolEventHandler(logger log.Logger, eventBus event.EventBus, pool ConfirmedTxRemover) *TxPoolEventHandler {
	return &TxPoolEventHandler{
		logger:   logger,
		eventBus: eventBus,
		pool:     pool,
	}
}

// Register 订阅链尖变化事件，重复调用为空操作
func (h *TxPoolEventHandler) Register() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.eventBus == nil {
		return fmt.Errorf("事件总线不可用")
	}
	if h.registered {
		return nil
	}
	if err := h.eventBus.Subscribe(types.EventTypeTipChanged, h.handleTipChanged); err != nil {
		return fmt.Errorf("订阅链尖变化事件失败: %w", err)
	}
	h.registered = true
	return nil
}

// Unregister 取消订阅
func (h *TxPoolEventHandler) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.registered {
		return nil
	}
	h.registered = false
	return h.eventBus.Unsubscribe(types.EventTypeTipChanged, h.handleTipChanged)
}

func (h *TxPoolEventHandler) handleTipChanged(data *types.TipChangedEventData) {
	if data == nil || data.Block == nil {
		return
	}
	removed := h.pool.RemoveConfirmed(data.Block)
	if removed > 0 && h.logger != nil {
		h.logger.Infof("链尖变化，已移除 %d 笔确认交易: height=%d", removed, data.Tip.Height)
	}
}
