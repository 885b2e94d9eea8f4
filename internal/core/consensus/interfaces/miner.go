// Package interfaces 定义共识模块的内部接口
//
// 本文件定义矿工模块内部子组件之间、以及矿工与外部协作者（区块模板源、链接收端）之间的接口：
// - 每个子目录的业务实现对应一个接口
// - 外部协作者只通过接口注入，便于测试替换
package interfaces

import (
	"context"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/weisyn/powminer/pkg/types"
)

// ============================================================================
//                              外部协作者
// ============================================================================

// Attempt 可变的区块模板
//
// 模板持有除 extranonce 与 nonce 以外的全部区块内容。矿工只通过该接口
// 派生区块头候选、构造证明并物化最终区块，不关心交易选择与手续费。
type Attempt interface {
	// ParentHash 模板的父区块哈希
	ParentHash() chainhash.Hash
	// Target 工作量目标，区块头哈希不得超过该值
	Target() *big.Int
	// Bits 紧凑形式的目标
	Bits() uint32
	// Height 模板高度
	Height() uint32
	// Timestamp 模板时间戳
	Timestamp() time.Time

	// DeriveRoot 使用 extranonce 对计算 merkle 根
	DeriveRoot(extraNonceHi, extraNonceLo uint32) chainhash.Hash
	// BuildHeader 序列化区块头候选（nonce 字段为占位值）
	BuildHeader(root chainhash.Hash, timestamp time.Time, nonce uint32) []byte
	// BuildProof 构造挖矿证明
	BuildProof(extraNonceHi, extraNonceLo uint32, timestamp time.Time, nonce uint32) *types.BlockProof
	// Commit 根据证明物化最终区块
	Commit(proof *types.BlockProof) (*btcutil.Block, error)

	// Refresh 重新拉取交易并更新时间戳
	Refresh() error
	// AddTX 校验输入后加入交易
	AddTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error
	// PushTX 不校验直接加入交易，view 可为 nil
	PushTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error
}

// BlockSource 区块模板源
type BlockSource interface {
	// CreateAttempt 基于 tip（nil 表示当前链尖）与奖励地址（nil 表示默认）创建模板
	CreateAttempt(ctx context.Context, tip *types.ChainEntry, address btcutil.Address) (Attempt, error)
}

// ChainSink 链接收端
type ChainSink interface {
	// Append 追加区块
	//
	// 结构或工作量无效时返回 *types.ValidationError；
	// 返回 (nil, nil) 表示父区块已不是链尖（父区块竞争）。
	Append(ctx context.Context, block *btcutil.Block) (*types.ChainEntry, error)

	// Tip 当前链尖
	Tip() *types.ChainEntry
}

// HashSearcher 同步哈希搜索原语
//
// 在 [min, max) 与 [0, 0xFFFFFFFF] 的交集内查找使区块头哈希不超过 target 的 nonce。
type HashSearcher func(header []byte, target *big.Int, min, max uint64) (uint32, bool)

// WorkerPool 异步搜索工作池
//
// 每次调用是一个不可中断的原子请求；ctx 只用于工作池自身关闭时的退出。
type WorkerPool interface {
	Search(ctx context.Context, header []byte, target *big.Int, min, max uint64) (uint32, bool, error)
}

// ============================================================================
//                              内部接口定义
// ============================================================================

// MinerController 公共接口控制器
//
// 由 controller/ 子目录实现，作为对外服务的统一入口。
type MinerController interface {
	// StartMining 启动挖矿循环，address 为 nil 时使用配置地址
	StartMining(ctx context.Context, address btcutil.Address) error
	// StopMining 停止挖矿并等待循环退出；未运行时为空操作
	StopMining(ctx context.Context) error
	// GetMiningStatus 获取挖矿状态快照
	GetMiningStatus(ctx context.Context) (*types.MiningStatus, error)

	// NotifyMempoolEntry 交易池新增交易通知
	NotifyMempoolEntry()
	// OnTipChanged 链尖变化通知
	OnTipChanged(tip *types.ChainEntry)
}

// PoWComputeHandler PoW计算处理器
//
// 管理搜索工作池的生命周期并提供异步搜索。
type PoWComputeHandler interface {
	WorkerPool

	// StartPoWEngine 按参数启动工作协程
	StartPoWEngine(ctx context.Context, params types.MiningParameters) error
	// StopPoWEngine 停止工作协程
	StopPoWEngine(ctx context.Context) error
	// IsRunning 工作池是否运行中
	IsRunning() bool
}

// MinerInternalState 矿工内部状态枚举类型别名
type MinerInternalState = types.MinerState

// MinerStateManager 内部状态管理器
type MinerStateManager interface {
	// GetMinerState 获取当前矿工状态
	GetMinerState() MinerInternalState

	// SetMinerState 设置矿工状态，非法转换返回错误
	SetMinerState(state MinerInternalState) error

	// ValidateStateTransition 检查状态转换是否合法
	ValidateStateTransition(from, to MinerInternalState) bool
}

// MinerEventHandler 矿工事件处理接口
//
// 将事件总线上的链尖与交易池通知转交给控制器。
type MinerEventHandler interface {
	// RegisterEventSubscriptions 注册事件订阅
	RegisterEventSubscriptions() error
	// UnregisterEventSubscriptions 取消事件订阅
	UnregisterEventSubscriptions() error
}
