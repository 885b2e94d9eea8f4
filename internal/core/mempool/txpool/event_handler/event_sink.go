// Package event_handler 交易池事件集成
//
// 负责交易池与事件总线之间的双向桥接：
// - 出站：交易接纳后发布 mempool.tx_added
// - 入站：链尖变化时从池中移除已确认交易
package event_handler

import (
	"github.com/weisyn/powminer/internal/core/mempool/txpool"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// txSink 是 TxPool 的事件下沉实现
type txSink struct {
	eventBus event.EventBus
	logger   log.Logger
}

// NewTxEventSink 创建发布到事件总线的事件下沉
func NewTxEventSink(eventBus event.EventBus, logger log.Logger) txpool.TxEventSink {
	if eventBus == nil {
		return txpool.NoopTxEventSink{}
	}
	return &txSink{eventBus: eventBus, logger: logger}
}

// OnTxAdded 发布交易池新增交易事件
func (s *txSink) OnTxAdded(desc *types.TxDesc) {
	s.eventBus.Publish(types.EventTypeMempoolEntry, &types.MempoolEntryEventData{Tx: desc.Tx})
}

// OnTxRemoved 交易移除只记录日志
func (s *txSink) OnTxRemoved(desc *types.TxDesc) {
	if s.logger != nil {
		s.logger.Debugf("交易已移出交易池: txid=%s", desc.Tx.Hash())
	}
}
