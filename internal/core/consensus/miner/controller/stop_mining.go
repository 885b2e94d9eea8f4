package controller

import (
	"context"

	"github.com/weisyn/powminer/pkg/types"
)

// stop 停止挖矿的内部实现，调用方需持有 stopMu
//
// 未运行时为空操作。已有停止请求在等待循环退出时返回 ErrStopSignalRegistered；
// 循环已退出但停止尚未完成复位时返回 ErrMinerAlreadyStopping。
// 停止请求会取消当前作业，使循环在下一个检查点退出；正在进行的
// 窗口搜索不会被中断，因此这里会阻塞到该窗口完成。
func (s *MinerControllerService) stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	if s.stopSignal != nil {
		s.mu.Unlock()
		return types.ErrStopSignalRegistered
	}
	if s.stopping {
		s.mu.Unlock()
		return types.ErrMinerAlreadyStopping
	}
	s.stopping = true
	signal := make(chan struct{})
	if s.exited {
		// 循环已因错误退出，无需等待
		close(signal)
	} else {
		s.stopSignal = signal
	}
	s.mu.Unlock()

	s.setState(types.MinerStateStopping)

	select {
	case s.stopReq <- struct{}{}:
	default:
	}

	s.logger.Info("等待挖矿循环退出")
	<-signal

	s.mu.Lock()
	s.running = false
	s.stopping = false
	s.stopSignal = nil
	s.mu.Unlock()

	s.activeJob = nil
	s.setState(types.MinerStateIdle)
	minerRunning.Set(0)
	s.logger.Info("挖矿已停止")
	return nil
}
