package event

import (
	"context"

	"go.uber.org/fx"

	eventconfig "github.com/weisyn/powminer/internal/config/event"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	eventInterface "github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	configtypes "github.com/weisyn/powminer/pkg/types"
)

// ModuleInput 事件模块输入依赖
type ModuleInput struct {
	fx.In

	Provider  config.Provider // 配置提供者
	Logger    log.Logger      `optional:"true"` // 日志记录器（可选）
	Lifecycle fx.Lifecycle    // 生命周期管理
}

// ModuleOutput 事件模块输出服务
type ModuleOutput struct {
	fx.Out

	EventBus eventInterface.EventBus // 基础事件总线
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideEventBus),
	)
}

// ProvideEventBus 创建事件总线并注册生命周期钩子
func ProvideEventBus(input ModuleInput) (ModuleOutput, error) {
	cfg := eventconfig.FromOptions(input.Provider.GetEvent())
	bus := New(cfg)

	input.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if input.Logger != nil {
				input.Logger.Infof("事件总线启动 enabled=%v max_subscribers=%d", cfg.IsEnabled(), cfg.GetMaxSubscribers())
			}
			return bus.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			err := bus.Stop(ctx)
			if input.Logger != nil {
				input.Logger.Infof("事件总线已停止，共发布事件 %d 个，其中出块 %d 个",
					bus.PublishedTotal(), bus.PublishedCount(configtypes.EventTypeBlockFound))
			}
			return err
		},
	})

	return ModuleOutput{EventBus: bus}, nil
}
