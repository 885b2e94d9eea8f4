package txpool

import "github.com/weisyn/powminer/pkg/types"

// TxEventSink 交易池对外的事件下沉接口
//
// 由 event_handler 实现并注入，TxPool 本身不依赖事件总线。
type TxEventSink interface {
	OnTxAdded(desc *types.TxDesc)
	OnTxRemoved(desc *types.TxDesc)
}

// NoopTxEventSink 默认空实现
type NoopTxEventSink struct{}

func (NoopTxEventSink) OnTxAdded(desc *types.TxDesc)   {}
func (NoopTxEventSink) OnTxRemoved(desc *types.TxDesc) {}
