// Package state_manager 实现矿工状态管理器服务
//
// 本包实现 MinerStateManager 接口：
// - 维护矿工当前运行状态
// - 按转换表验证状态转换的合法性
// - 状态变更时发布 consensus.miner.state_changed 事件
package state_manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// MinerStateService 矿工状态管理服务实现
type MinerStateService struct {
	logger   log.Logger
	eventBus event.EventBus // 可选

	mu           sync.RWMutex
	currentState interfaces.MinerInternalState
	lastChanged  time.Time
}

// NewMinerStateService 创建矿工状态服务实例，初始状态为 Idle
func NewMinerStateService(logger log.Logger, eventBus event.EventBus) *MinerStateService {
	return &MinerStateService{
		logger:       logger,
		eventBus:     eventBus,
		currentState: types.MinerStateIdle,
		lastChanged:  time.Now(),
	}
}

// 编译时确保 MinerStateService 实现了 MinerStateManager 接口
var _ interfaces.MinerStateManager = (*MinerStateService)(nil)

// GetMinerState 获取当前矿工状态
func (s *MinerStateService) GetMinerState() interfaces.MinerInternalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentState
}

// LastChanged 最后一次状态变更时间
func (s *MinerStateService) LastChanged() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastChanged
}

// SetMinerState 设置矿工状态
//
// 相同状态的设置为幂等操作，不发布事件。
func (s *MinerStateService) SetMinerState(state interfaces.MinerInternalState) error {
	s.mu.Lock()
	from := s.currentState
	if from == state {
		s.mu.Unlock()
		return nil
	}
	if !s.ValidateStateTransition(from, state) {
		s.mu.Unlock()
		return fmt.Errorf("非法的矿工状态转换: %s -> %s", from, state)
	}
	s.currentState = state
	s.lastChanged = time.Now()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Infof("矿工状态变更: %s -> %s", from, state)
	}
	if s.eventBus != nil {
		s.eventBus.Publish(types.EventTypeMinerStateChanged, &types.MinerStateChangedEventData{
			OldState: from,
			NewState: state,
		})
	}
	return nil
}
