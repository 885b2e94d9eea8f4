package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/internal/core/consensus/miner/job"
	"github.com/weisyn/powminer/pkg/types"
)

// errParentRace 链接收端拒绝了区块但未报告原因，通常是父区块已不再是链尖
var errParentRace = errors.New("区块追加未产生链上条目")

// runMiningLoop 挖矿主循环
//
// 每一轮：创建作业 → 搜索直到找到解或作业被取消 → 提交区块。
// 校验失败的区块被丢弃并进入下一轮；其余错误终止循环。
func (s *MinerControllerService) runMiningLoop(ctx context.Context, address btcutil.Address) {
	var exitErr error
	defer func() { s.onLoopExit(exitErr) }()

	for {
		s.activeJob = nil

		// 1. 创建作业
		j, err := s.CreateJob(ctx, nil, address)
		if err != nil {
			if s.isStopping() {
				return
			}
			exitErr = s.reportError(fmt.Errorf("创建挖矿作业失败: %w", err))
			return
		}

		// 作业生效前到达的通知针对的是旧作业，此时处理均为空操作
		s.drainInbox()
		s.activeJob = j

		// 2. 已请求停止
		if s.isStopping() {
			return
		}

		// 3. 搜索
		block, err := s.MineAsync(ctx, j)
		if err != nil {
			if s.isStopping() {
				return
			}
			exitErr = s.reportError(fmt.Errorf("挖矿失败: %w", err))
			return
		}

		// 4. 提交前再次处理通知
		s.drainInbox()
		if s.isStopping() {
			return
		}

		// 5. 作业被取消
		if block == nil {
			s.logger.Debugf("作业已取消，重新创建: job=%s", j.ID())
			continue
		}

		// 6. 提交区块
		entry, err := s.chainSink.Append(ctx, block)
		if err != nil {
			if verr, ok := types.IsValidationError(err); ok {
				minerBlocksRejected.Inc()
				s.logger.Warnf("挖出的区块未通过校验: hash=%s reason=%s", block.Hash(), verr.Reason)
				continue
			}
			if s.isStopping() {
				return
			}
			exitErr = s.reportError(fmt.Errorf("提交区块失败: %w", err))
			return
		}
		if entry == nil {
			s.logger.Errorf("挖出的区块未能上链（父区块竞争）: hash=%s", block.Hash())
			exitErr = errParentRace
			return
		}

		s.publishBlockFound(j, block, entry)
	}
}

// CreateJob 基于链尖创建作业，tip 为 nil 表示当前链尖
func (s *MinerControllerService) CreateJob(ctx context.Context, tip *types.ChainEntry, address btcutil.Address) (*job.MiningJob, error) {
	attempt, err := s.blockSource.CreateAttempt(ctx, tip, address)
	if err != nil {
		return nil, err
	}
	j := job.New(attempt, s.clock)
	s.logger.Infof("创建挖矿作业: job=%s height=%d parent=%s", j.ID(), attempt.Height(), attempt.ParentHash())
	return j, nil
}

// reportError 记录致命错误并发布错误事件
func (s *MinerControllerService) reportError(err error) error {
	s.logger.Errorf("挖矿循环异常退出: %v", err)
	s.setLastError(err)
	if s.eventBus != nil {
		s.eventBus.Publish(types.EventTypeMinerError, &types.MinerErrorEventData{
			Err:       err,
			Timestamp: s.clock.Now(),
		})
	}
	return err
}

// publishBlockFound 发布区块挖出事件
func (s *MinerControllerService) publishBlockFound(j *job.MiningJob, block *btcutil.Block, entry *types.ChainEntry) {
	minerBlocksFound.Inc()
	s.incBlocksFound()
	s.logger.Infof("挖出新区块: height=%d hash=%s job=%s", entry.Height, entry.Hash, j.ID())
	if s.eventBus != nil {
		s.eventBus.Publish(types.EventTypeBlockFound, &types.BlockFoundEventData{
			JobID: j.ID(),
			Block: block,
			Entry: entry,
		})
	}
}

// onLoopExit 登记循环退出并唤醒等待中的停止请求
//
// 非停止原因的退出使矿工进入 Error 状态，running 保持为 true 直到 StopMining。
func (s *MinerControllerService) onLoopExit(exitErr error) {
	s.mu.Lock()
	s.exited = true
	stopping := s.stopping
	if s.stopSignal != nil {
		close(s.stopSignal)
		s.stopSignal = nil
	}
	s.mu.Unlock()

	if exitErr != nil && !stopping {
		s.setState(types.MinerStateError)
	}
	s.logger.Info("挖矿循环已退出")
}
