// Package event_handler 实现矿工事件处理服务
//
// 🎯 **矿工事件处理服务模块**
//
// 本包实现 MinerEventHandler 接口，把事件总线上的外部通知转交给矿工控制器：
// - 链尖变化事件 → MinerController.OnTipChanged
// - 交易池新增交易事件 → MinerController.NotifyMempoolEntry
//
// 🏗️ **架构设计**：
// - 委托模式：manager 只负责订阅管理，具体转换逻辑在 chain_events_handler.go
// - 处理器只投递通知，不阻塞发布方；作业取消由控制器的挖矿循环完成
package event_handler

import (
	"fmt"
	"sync"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// MinerEventHandlerService 矿工事件处理服务实现
type MinerEventHandlerService struct {
	logger          log.Logger                 // 日志记录器
	eventBus        event.EventBus             // 事件总线
	minerController interfaces.MinerController // 矿工控制器

	chainEventsHandler *chainEventsHandler // 链与交易池事件处理器

	mu         sync.Mutex
	registered bool
}

// NewMinerEventHandlerService 创建矿工事件处理服务实例
func NewMinerEventHandlerService(
	logger log.Logger,
	eventBus event.EventBus,
	minerController interfaces.MinerController,
) *MinerEventHandlerService {
	service := &MinerEventHandlerService{
		logger:             logger,
		eventBus:           eventBus,
		minerController:    minerController,
		chainEventsHandler: newChainEventsHandler(logger, minerController),
	}

	if logger != nil {
		logger.Info("[MinerEventHandler] 矿工事件处理服务已创建")
	}

	return service
}

// RegisterEventSubscriptions 注册事件订阅，重复调用为空操作
func (s *MinerEventHandlerService) RegisterEventSubscriptions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registered {
		return nil
	}
	if s.eventBus == nil {
		return fmt.Errorf("事件总线未配置")
	}

	if err := s.eventBus.Subscribe(types.EventTypeTipChanged, s.chainEventsHandler.handleTipChanged); err != nil {
		return fmt.Errorf("订阅链尖变化事件失败: %w", err)
	}
	if err := s.eventBus.Subscribe(types.EventTypeMempoolEntry, s.chainEventsHandler.handleMempoolEntry); err != nil {
		_ = s.eventBus.Unsubscribe(types.EventTypeTipChanged, s.chainEventsHandler.handleTipChanged)
		return fmt.Errorf("订阅交易池事件失败: %w", err)
	}

	s.registered = true
	if s.logger != nil {
		s.logger.Info("[MinerEventHandler] ✅ 已订阅链尖与交易池事件")
	}
	return nil
}

// UnregisterEventSubscriptions 取消事件订阅
func (s *MinerEventHandlerService) UnregisterEventSubscriptions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registered {
		return nil
	}

	var firstErr error
	if err := s.eventBus.Unsubscribe(types.EventTypeTipChanged, s.chainEventsHandler.handleTipChanged); err != nil {
		firstErr = fmt.Errorf("取消链尖变化订阅失败: %w", err)
	}
	if err := s.eventBus.Unsubscribe(types.EventTypeMempoolEntry, s.chainEventsHandler.handleMempoolEntry); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("取消交易池订阅失败: %w", err)
	}

	s.registered = false
	return firstErr
}

// ==================== 编译时接口检查 ====================

var _ interfaces.MinerEventHandler = (*MinerEventHandlerService)(nil)
