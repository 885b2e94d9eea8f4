// Package consensus 提供矿工服务接口定义
//
// ⛏️ **矿工服务 (Miner Service)**
//
// 本文件定义了 PoW 矿工的公共接口，专注于：
// - 挖矿生命周期控制（启动/停止）
// - 挖矿状态查询和监控
//
// 📊 **主要使用场景**
// - API层：HTTP 挖矿控制接口
// - CLI工具：命令行启动时自动挖矿
package consensus

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/pkg/types"
)

// MinerService 矿工服务的公共接口
type MinerService interface {
	// StartMining 启动挖矿
	//
	// address 为出块奖励地址，nil 表示使用配置地址。
	// 矿工处于 Error 状态时先完成一次停止再重新启动。
	StartMining(ctx context.Context, address btcutil.Address) error

	// StopMining 停止挖矿并等待挖矿循环退出，未运行时为空操作
	StopMining(ctx context.Context) error

	// GetMiningStatus 获取挖矿状态快照
	GetMiningStatus(ctx context.Context) (*types.MiningStatus, error)
}
