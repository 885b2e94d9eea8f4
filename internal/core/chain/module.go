package chain

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	chainconfig "github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/internal/core/infrastructure/storage/memory"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
)

// ModuleInput 定义 chain 模块的输入依赖
type ModuleInput struct {
	fx.In

	ConfigProvider config.Provider       `optional:"false"`
	Logger         log.Logger            `optional:"false"`
	EventBus       event.EventBus        `optional:"true"`
	Registerer     prometheus.Registerer `optional:"true"` // 为空时使用默认注册表
	Lifecycle      fx.Lifecycle
}

// ModuleOutput 定义 chain 模块的输出服务
type ModuleOutput struct {
	fx.Out

	ChainService chainif.ChainService // 链服务
	ChainReader  chainif.ChainReader  // 链只读视图
}

// Module 返回 chain 模块
func Module() fx.Option {
	return fx.Module("chain",
		fx.Provide(ProvideChainService),
	)
}

// ProvideChainService 创建区块缓存与开发链
func ProvideChainService(input ModuleInput) (ModuleOutput, error) {
	options := input.ConfigProvider.GetChain()
	params, err := chainconfig.NetParams(options.Network)
	if err != nil {
		return ModuleOutput{}, err
	}

	logger := input.Logger.With("module", "chain")
	store, err := memory.New(options.CacheLifeWindow, logger)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建区块缓存失败: %w", err)
	}

	service, err := New(logger, input.EventBus, params, store)
	if err != nil {
		_ = store.Close()
		return ModuleOutput{}, err
	}

	registerer := input.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if err := memory.RegisterMetrics(registerer, "powminer", "block_cache", store); err != nil {
		logger.Warnf("注册区块缓存指标失败: %v", err)
	}

	input.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tip := service.Tip()
			logger.Infof("开发链停止: height=%d tip=%s", tip.Height, tip.Hash)
			return store.Close()
		},
	})

	return ModuleOutput{
		ChainService: service,
		ChainReader:  service,
	}, nil
}
