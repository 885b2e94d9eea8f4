package controller

import (
	"context"
	"time"

	"github.com/weisyn/powminer/pkg/types"
)

// getMiningStatus 组装挖矿状态快照
//
// 运行标志取自控制器，状态取自状态管理器，进度取自最近一次上报。
func (s *MinerControllerService) getMiningStatus(ctx context.Context) (*types.MiningStatus, error) {
	s.mu.Lock()
	running := s.running
	stopping := s.stopping
	address := addressString(s.address)
	startedAt := s.startedAt
	s.mu.Unlock()

	s.statusMu.RLock()
	snap := s.status
	s.statusMu.RUnlock()

	state := types.MinerStateIdle
	if s.stateManager != nil {
		state = s.stateManager.GetMinerState()
	}

	var uptime time.Duration
	if running && !startedAt.IsZero() {
		uptime = s.clock.Since(startedAt)
	}

	return &types.MiningStatus{
		Running:      running,
		Stopping:     stopping,
		State:        state.String(),
		MinerAddress: address,
		JobID:        snap.jobID,
		Height:       snap.height,
		Bits:         snap.bits,
		Iterations:   snap.iterations,
		HashCount:    snap.hashCount,
		HashRate:     snap.hashRate,
		Uptime:       uptime,
		BlocksFound:  snap.blocksFound,
		LastError:    snap.lastError,
	}, nil
}
