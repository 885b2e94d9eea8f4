// Package pow_handler 实现PoW计算处理器服务
//
// 本包实现 PoWComputeHandler 接口：
// - 同步哈希搜索原语（双 SHA-256 区块头，nonce 位于偏移 76）
// - 多协程工作池，将一个 nonce 窗口切分为连续分片并行搜索
// - 工作池生命周期管理
package pow_handler

import (
	"context"
	"math/big"
	"sync"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// PoWTask 分片搜索任务
type PoWTask struct {
	Header     []byte            // 区块头（每个任务独立副本）
	Target     *big.Int          // 目标
	StartNonce uint64            // 起始nonce（含）
	EndNonce   uint64            // 结束nonce（不含）
	Results    chan<- *PoWResult // 结果回传通道
}

// PoWResult 分片搜索结果
type PoWResult struct {
	Found    bool   // 是否命中
	Nonce    uint32 // 命中的nonce
	WorkerID int    // 工作器ID
}

// PoWComputeService PoW计算服务实现
type PoWComputeService struct {
	logger   log.Logger
	searcher interfaces.HashSearcher

	mu        sync.Mutex
	isRunning bool
	params    types.MiningParameters
	tasks     chan *PoWTask
	quit      chan struct{}
	wg        sync.WaitGroup
}

// NewPoWComputeService 创建PoW计算服务实例
//
// searcher 为 nil 时使用 SearchNonce。
func NewPoWComputeService(logger log.Logger, searcher interfaces.HashSearcher) *PoWComputeService {
	if searcher == nil {
		searcher = SearchNonce
	}
	return &PoWComputeService{
		logger:   logger,
		searcher: searcher,
	}
}

// 编译时确保 PoWComputeService 实现了 PoWComputeHandler 接口
var _ interfaces.PoWComputeHandler = (*PoWComputeService)(nil)

// StartPoWEngine 启动工作池 - 委托给 start_engine.go
func (s *PoWComputeService) StartPoWEngine(ctx context.Context, params types.MiningParameters) error {
	return s.startPoWEngine(ctx, params)
}

// StopPoWEngine 停止工作池 - 委托给 stop_engine.go
func (s *PoWComputeService) StopPoWEngine(ctx context.Context) error {
	return s.stopPoWEngine(ctx)
}

// Search 在 [min, max) 中并行搜索 - 委托给 search.go
func (s *PoWComputeService) Search(ctx context.Context, header []byte, target *big.Int, min, max uint64) (uint32, bool, error) {
	return s.search(ctx, header, target, min, max)
}

// IsRunning 工作池是否运行中
func (s *PoWComputeService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Workers 当前工作协程数
func (s *PoWComputeService) Workers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Workers
}
