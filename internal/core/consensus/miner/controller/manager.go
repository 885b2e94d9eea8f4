// Package controller 实现矿工控制器服务
//
// 🎯 **控制器服务模块**
//
// 本包实现 MinerController 接口，是挖矿协调器的核心：
// - 管理挖矿循环的启动、停止和状态查询
// - 为每个区块模板创建作业并在 nonce 空间上分窗口搜索
// - 通过收件箱串行处理链尖与交易池通知，必要时取消当前作业
// - 将找到的区块提交给链接收端并发布事件
//
// 挖矿循环是唯一访问当前作业的协程；外部通知只投递到收件箱，
// 由循环在窗口之间的检查点处理。
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	consensusconfig "github.com/weisyn/powminer/internal/config/consensus"
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/internal/core/consensus/miner/job"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// MinerControllerService 矿工控制器服务实现
type MinerControllerService struct {
	// 基础依赖
	logger   log.Logger     // 日志记录器
	eventBus event.EventBus // 事件总线
	clock    clock.Clock    // 时间源

	// 协作者
	blockSource  interfaces.BlockSource       // 区块模板源
	chainSink    interfaces.ChainSink         // 链接收端
	pool         interfaces.WorkerPool        // 异步搜索工作池
	searcher     interfaces.HashSearcher      // 同步搜索原语
	stateManager interfaces.MinerStateManager // 状态管理器
	options      *consensusconfig.MinerOptions

	defaultAddress btcutil.Address // 配置的奖励地址，可为 nil
	interval       uint64          // 单个 nonce 窗口的大小

	// 生命周期（mu 保护）
	stopMu     sync.Mutex // 串行化外部停止请求
	mu         sync.Mutex
	running    bool
	stopping   bool
	exited     bool          // 当前运行的循环已退出
	stopSignal chan struct{} // 循环退出时关闭，至多一个
	address    btcutil.Address
	startedAt  time.Time

	// 只由挖矿循环协程访问
	activeJob    *job.MiningJob
	mempoolSince int

	inbox   chan inboxMessage // 链尖与交易池通知
	stopReq chan struct{}     // 停止请求，容量为 1，不会被丢弃

	statusMu sync.RWMutex
	status   statusSnapshot
}

// NewMinerControllerService 创建矿工控制器服务实例
//
// searcher 为 nil 时同步搜索不可用（Mine/FindNonceRange 只用于测试与工具）。
func NewMinerControllerService(
	logger log.Logger,
	eventBus event.EventBus,
	clk clock.Clock,
	blockSource interfaces.BlockSource,
	chainSink interfaces.ChainSink,
	pool interfaces.WorkerPool,
	searcher interfaces.HashSearcher,
	stateManager interfaces.MinerStateManager,
	options *consensusconfig.MinerOptions,
	defaultAddress btcutil.Address,
) *MinerControllerService {
	if options == nil {
		options = consensusconfig.New(nil).GetOptions()
	}
	inboxSize := options.InboxSize
	if inboxSize <= 0 {
		inboxSize = 1
	}
	return &MinerControllerService{
		logger:         logger,
		eventBus:       eventBus,
		clock:          clk,
		blockSource:    blockSource,
		chainSink:      chainSink,
		pool:           pool,
		searcher:       searcher,
		stateManager:   stateManager,
		options:        options,
		defaultAddress: defaultAddress,
		interval:       nonceInterval(options.NonceIntervalCount),
		inbox:          make(chan inboxMessage, inboxSize),
		stopReq:        make(chan struct{}, 1),
	}
}

// nonceInterval 计算窗口大小：0xFFFFFFFF / count，至少为 1
func nonceInterval(count int) uint64 {
	if count <= 0 {
		count = 1
	}
	interval := uint64(job.MaxNonce) / uint64(count)
	if interval == 0 {
		interval = 1
	}
	return interval
}

// ============================================================================
//                           MinerController 接口实现
// ============================================================================

// StartMining 启动挖矿
func (s *MinerControllerService) StartMining(ctx context.Context, address btcutil.Address) error {
	return s.startMining(ctx, address)
}

// StopMining 停止挖矿
func (s *MinerControllerService) StopMining(ctx context.Context) error {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	return s.stop(ctx)
}

// GetMiningStatus 获取挖矿状态
func (s *MinerControllerService) GetMiningStatus(ctx context.Context) (*types.MiningStatus, error) {
	return s.getMiningStatus(ctx)
}

// IsRunning 挖矿是否已启动（包括循环因错误退出但尚未停止的情况）
func (s *MinerControllerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// isStopping 是否已请求停止
func (s *MinerControllerService) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// setState 更新状态管理器，非法转换只记录日志
func (s *MinerControllerService) setState(state types.MinerState) {
	if s.stateManager == nil {
		return
	}
	if err := s.stateManager.SetMinerState(state); err != nil {
		s.logger.Debugf("忽略矿工状态转换: %v", err)
	}
}

var _ interfaces.MinerController = (*MinerControllerService)(nil)
