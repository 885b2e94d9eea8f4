// Package miner 提供矿工管理服务的实现
//
// 🎯 **矿工管理器**
//
// 本文件实现矿工服务管理器，作为各个业务模块的协调中心：
// - **架构角色**：薄管理器，委托具体业务实现给专业模块
// - **接口实现**：统一实现 consensus.MinerService 公共接口
// - **模块协调**：协调 controller/、pow_handler/、state_manager/、event_handler/
// - **生命周期**：启动时拉起工作池并注册事件订阅，按配置自动开始挖矿
package miner

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	consensusconfig "github.com/weisyn/powminer/internal/config/consensus"
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/internal/core/consensus/miner/controller"
	"github.com/weisyn/powminer/internal/core/consensus/miner/event_handler"
	"github.com/weisyn/powminer/internal/core/consensus/miner/pow_handler"
	"github.com/weisyn/powminer/internal/core/consensus/miner/state_manager"
	"github.com/weisyn/powminer/pkg/interfaces/consensus"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	eventIf "github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// Manager 矿工管理器
type Manager struct {
	// ========== 核心依赖 ==========
	logger  log.Logger                    // 日志记录器
	options *consensusconfig.MinerOptions // 矿工配置

	// ========== 业务模块实例 ==========
	controllerService   *controller.MinerControllerService // 控制器服务
	powHandlerService   interfaces.PoWComputeHandler       // PoW计算服务
	stateManagerService interfaces.MinerStateManager       // 状态管理服务
	eventHandlerService interfaces.MinerEventHandler       // 事件处理服务
}

// NewManager 创建矿工管理器实例
func NewManager(
	logger log.Logger,
	eventBus eventIf.EventBus,
	clk clock.Clock,
	options *consensusconfig.MinerOptions,
	blockSource interfaces.BlockSource,
	chainSink interfaces.ChainSink,
	defaultAddress btcutil.Address,
) *Manager {
	if options == nil {
		options = consensusconfig.New(nil).GetOptions()
	}

	powHandlerService := pow_handler.NewPoWComputeService(logger, pow_handler.SearchNonce)
	stateManagerService := state_manager.NewMinerStateService(logger, eventBus)

	controllerService := controller.NewMinerControllerService(
		logger,
		eventBus,
		clk,
		blockSource,
		chainSink,
		powHandlerService,
		pow_handler.SearchNonce,
		stateManagerService,
		options,
		defaultAddress,
	)

	eventHandlerService := event_handler.NewMinerEventHandlerService(
		logger,
		eventBus,
		controllerService,
	)

	return &Manager{
		logger:              logger,
		options:             options,
		controllerService:   controllerService,
		powHandlerService:   powHandlerService,
		stateManagerService: stateManagerService,
		eventHandlerService: eventHandlerService,
	}
}

// ==================== MinerService 接口实现 ====================

// StartMining 启动挖矿
//
// 挖矿循环因错误退出后矿工停留在 Error 状态，此处先停止再启动。
func (m *Manager) StartMining(ctx context.Context, address btcutil.Address) error {
	if m.stateManagerService.GetMinerState() == types.MinerStateError {
		m.logger.Warn("[MinerManager] 矿工处于错误状态，先执行停止")
		if err := m.controllerService.StopMining(ctx); err != nil {
			return fmt.Errorf("重置错误状态失败: %w", err)
		}
	}
	return m.controllerService.StartMining(ctx, address) // 委托给业务模块
}

// StopMining 停止挖矿
func (m *Manager) StopMining(ctx context.Context) error {
	return m.controllerService.StopMining(ctx) // 委托给业务模块
}

// GetMiningStatus 获取挖矿状态
func (m *Manager) GetMiningStatus(ctx context.Context) (*types.MiningStatus, error) {
	return m.controllerService.GetMiningStatus(ctx) // 委托给业务模块
}

// ==================== 生命周期 ====================

// Start 启动工作池、注册事件订阅，并按配置自动开始挖矿
func (m *Manager) Start(ctx context.Context) error {
	params := types.MiningParameters{
		Workers:            m.options.Workers,
		NonceIntervalCount: m.options.NonceIntervalCount,
	}
	if !m.powHandlerService.IsRunning() {
		if err := m.powHandlerService.StartPoWEngine(ctx, params); err != nil {
			return fmt.Errorf("启动PoW工作池失败: %w", err)
		}
	}

	if err := m.eventHandlerService.RegisterEventSubscriptions(); err != nil {
		m.logger.Errorf("[MinerManager] 注册事件订阅失败: %v", err)
	}

	if m.options.AutoStart {
		if err := m.StartMining(ctx, nil); err != nil {
			return fmt.Errorf("自动启动挖矿失败: %w", err)
		}
	}
	return nil
}

// Stop 停止挖矿、取消订阅并关闭工作池
func (m *Manager) Stop(ctx context.Context) error {
	if err := m.controllerService.StopMining(ctx); err != nil {
		m.logger.Warnf("[MinerManager] 停止挖矿失败: %v", err)
	}
	if err := m.eventHandlerService.UnregisterEventSubscriptions(); err != nil {
		m.logger.Warnf("[MinerManager] 取消事件订阅失败: %v", err)
	}
	return m.powHandlerService.StopPoWEngine(ctx)
}

// ==================== 编译时接口检查 ====================

var _ consensus.MinerService = (*Manager)(nil)
