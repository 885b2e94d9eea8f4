package event_handler

import (
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// chainEventsHandler 链尖与交易池事件处理器
type chainEventsHandler struct {
	logger          log.Logger
	minerController interfaces.MinerController
}

func newChainEventsHandler(logger log.Logger, minerController interfaces.MinerController) *chainEventsHandler {
	return &chainEventsHandler{
		logger:          logger,
		minerController: minerController,
	}
}

// handleTipChanged 处理链尖变化事件
func (h *chainEventsHandler) handleTipChanged(data *types.TipChangedEventData) {
	if data == nil || data.Tip == nil {
		return
	}
	if h.logger != nil {
		h.logger.Debugf("[MinerEventHandler] 链尖变化: height=%d hash=%s", data.Tip.Height, data.Tip.Hash)
	}
	h.minerController.OnTipChanged(data.Tip)
}

// handleMempoolEntry 处理交易池新增交易事件
func (h *chainEventsHandler) handleMempoolEntry(data *types.MempoolEntryEventData) {
	h.minerController.NotifyMempoolEntry()
}
