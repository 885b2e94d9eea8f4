package controller

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/types"
)

// startMining 启动挖矿服务的具体实现
//
// 🎯 **核心流程**：
// 1. 契约检查：重复启动返回 ErrMinerAlreadyRunning
// 2. 确保工作池已启动
// 3. 清理上一次运行遗留的停止请求与通知
// 4. 启动挖矿循环协程
//
// 循环使用与调用方取消无关的上下文，停止只能通过 StopMining 触发。
func (s *MinerControllerService) startMining(ctx context.Context, address btcutil.Address) error {
	if address == nil {
		address = s.defaultAddress
	}

	// 1. 契约检查并占位
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return types.ErrMinerAlreadyRunning
	}
	s.running = true
	s.stopping = false
	s.exited = false
	s.stopSignal = nil
	s.address = address
	s.startedAt = s.clock.Now()
	s.mu.Unlock()

	// 2. 确保工作池运行
	if err := s.ensurePoolRunning(ctx); err != nil {
		s.mu.Lock()
		s.running = false
		s.exited = true
		if s.stopSignal != nil {
			close(s.stopSignal)
			s.stopSignal = nil
		}
		s.mu.Unlock()
		return fmt.Errorf("启动PoW工作池失败: %w", err)
	}

	// 3. 清理遗留消息
	s.drainStale()
	s.mempoolSince = 0
	s.activeJob = nil
	s.resetStatus()

	// 4. 启动循环
	s.setState(types.MinerStateActive)
	minerRunning.Set(1)
	go s.runMiningLoop(context.WithoutCancel(ctx), address)

	s.logger.Infof("挖矿已启动: address=%s", addressString(address))
	return nil
}

// ensurePoolRunning 工作池支持生命周期管理时按配置启动
func (s *MinerControllerService) ensurePoolRunning(ctx context.Context) error {
	handler, ok := s.pool.(interfaces.PoWComputeHandler)
	if !ok || handler.IsRunning() {
		return nil
	}
	params := types.MiningParameters{
		Workers:            s.options.Workers,
		NonceIntervalCount: s.options.NonceIntervalCount,
	}
	return handler.StartPoWEngine(ctx, params)
}

// drainStale 丢弃上一次运行遗留的停止请求与通知
func (s *MinerControllerService) drainStale() {
	for {
		select {
		case <-s.stopReq:
		case <-s.inbox:
		default:
			return
		}
	}
}

func addressString(address btcutil.Address) string {
	if address == nil {
		return ""
	}
	return address.EncodeAddress()
}
