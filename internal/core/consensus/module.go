// Package consensus 提供 PoW 挖矿协调器的共识模块实现
//
// 📋 **共识核心模块 (Consensus Core Module)**
//
// 通过 fx 依赖注入框架把矿工各子模块组织为统一的服务，对外提供
// consensus.MinerService 公共接口。
//
// 📦 **子模块组织**：
// - miner/controller    - 挖矿循环与作业调度
// - miner/job           - 单个区块模板上的搜索状态
// - miner/pow_handler   - 哈希搜索原语与工作池
// - miner/state_manager - 矿工状态机
// - miner/event_handler - 链尖与交易池事件转发
//
// 🔗 **依赖关系**：
// - 基础设施：log、event、clock
// - 协作者：区块模板源（BlockSource）与开发链（ChainSink）
package consensus

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"go.uber.org/fx"

	chainconfig "github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/internal/core/consensus/miner"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/interfaces/consensus"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
)

// ==================== 模块输入依赖 ====================

// ModuleInput 定义模块的输入依赖
//
// 🔧 **依赖等级说明**：
// - optional:"false" - 必需依赖，缺失时 fx 报错
// - optional:"true"  - 可选依赖，允许为 nil
type ModuleInput struct {
	fx.In

	// 基础设施组件
	ConfigProvider config.Provider `optional:"false"`
	Logger         log.Logger      `optional:"false"`
	EventBus       event.EventBus  `optional:"true"`
	Clock          clock.Clock     `optional:"false"`

	// 协作者
	BlockSource interfaces.BlockSource `optional:"false"`
	ChainSink   chainif.ChainService   `optional:"false"`

	Lifecycle fx.Lifecycle
}

// ModuleOutput 定义模块的输出服务
type ModuleOutput struct {
	fx.Out

	MinerService consensus.MinerService // 矿工公共服务
}

// Module 返回共识模块
func Module() fx.Option {
	return fx.Module("consensus",
		fx.Provide(ProvideMinerService),
	)
}

// ProvideMinerService 创建矿工管理器并注册生命周期钩子
func ProvideMinerService(input ModuleInput) (ModuleOutput, error) {
	minerOptions := input.ConfigProvider.GetMiner()

	address, err := decodeMinerAddress(minerOptions.Address, input.ConfigProvider)
	if err != nil {
		return ModuleOutput{}, err
	}

	logger := input.Logger.With("module", "consensus")
	manager := miner.NewManager(
		logger,
		input.EventBus,
		input.Clock,
		minerOptions,
		input.BlockSource,
		input.ChainSink,
		address,
	)

	input.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("共识模块启动")
			return manager.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("共识模块停止")
			return manager.Stop(ctx)
		},
	})

	return ModuleOutput{MinerService: manager}, nil
}

// decodeMinerAddress 按链参数解析配置中的奖励地址，空字符串返回 nil
func decodeMinerAddress(encoded string, provider config.Provider) (btcutil.Address, error) {
	if encoded == "" {
		return nil, nil
	}
	params, err := chainconfig.NetParams(provider.GetChain().Network)
	if err != nil {
		return nil, err
	}
	address, err := btcutil.DecodeAddress(encoded, params)
	if err != nil {
		return nil, fmt.Errorf("解析矿工地址失败: %w", err)
	}
	if !address.IsForNet(params) {
		return nil, fmt.Errorf("矿工地址 %s 不属于网络 %s", encoded, params.Name)
	}
	return address, nil
}
