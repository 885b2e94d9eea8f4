package state_manager

import (
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/types"
)

// allowedTransitions 状态转换表
//
//	Idle     → Active            启动挖矿
//	Active   → Stopping | Error  请求停止 / 循环致命退出
//	Stopping → Idle              循环退出，停止完成
//	Error    → Stopping | Idle   运维停止 / 直接复位
var allowedTransitions = map[interfaces.MinerInternalState][]interfaces.MinerInternalState{
	types.MinerStateIdle:     {types.MinerStateActive},
	types.MinerStateActive:   {types.MinerStateStopping, types.MinerStateError},
	types.MinerStateStopping: {types.MinerStateIdle},
	types.MinerStateError:    {types.MinerStateStopping, types.MinerStateIdle},
}

// ValidateStateTransition 验证状态转换的合法性
func (s *MinerStateService) ValidateStateTransition(from, to interfaces.MinerInternalState) bool {
	if from == to {
		return true
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
