package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/weisyn/powminer/internal/api"
	config "github.com/weisyn/powminer/internal/config"
	"github.com/weisyn/powminer/internal/core/blocktemplate"
	"github.com/weisyn/powminer/internal/core/chain"
	"github.com/weisyn/powminer/internal/core/consensus"
	"github.com/weisyn/powminer/internal/core/infrastructure/clock"
	"github.com/weisyn/powminer/internal/core/infrastructure/event"
	log "github.com/weisyn/powminer/internal/core/infrastructure/log"
	"github.com/weisyn/powminer/internal/core/mempool"
	configif "github.com/weisyn/powminer/pkg/interfaces/config"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{
		opts: opts,
	}
}

// SetupInfrastructureLayer 设置基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configif.AppOptions { return b.opts }),
		config.Module(), // 1. 配置(不依赖其他)
		log.Module(),    // 2. 日志(依赖配置)
		event.Module(),  // 3. 事件总线(依赖配置和日志)
		clock.Module(),  // 4. 时钟(依赖配置和日志)
	}
}

// SetupBusinessLayer 设置业务逻辑层模块
//
// 加载顺序：链 -> 交易池 -> 区块模板源 -> 共识
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		chain.Module(),         // 开发链（ChainSink 与 UTXO 视图）
		mempool.Module(),       // 交易池（依赖链）
		blocktemplate.Module(), // 区块模板源（依赖链与交易池）
		consensus.Module(),     // 矿工（依赖模板源与链）
	}
}

// SetupApplicationLayer 设置应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	var modules []fx.Option
	if b.opts.enableAPI {
		modules = append(modules, api.Module())
	}
	return modules
}

// SetupModules 设置所有应用模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var allModules []fx.Option
	allModules = append(allModules, b.SetupInfrastructureLayer()...)
	allModules = append(allModules, b.SetupBusinessLayer()...)
	allModules = append(allModules, b.SetupApplicationLayer()...)
	allModules = append(allModules, b.opts.extra...)
	return allModules
}

// CreateFxApp 创建并配置fx应用
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(
		fx.Options(b.SetupModules()...),
		// 禁用fx内部日志
		fx.NopLogger,
	)
	return b.fxApp.Err()
}

// StartApp 启动应用程序
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用程序
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// BootstrapApp 执行完整的引导过程并返回应用实例
func BootstrapApp(opts ...Option) (App, error) {
	bootstrap := NewBootstrap(newOptions(opts...))

	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), bootstrap.opts.startTimeout)
	defer startupCancel()

	if err := bootstrap.StartApp(startupCtx); err != nil {
		return nil, err
	}

	return &internalApp{bootstrap: bootstrap}, nil
}
