// Package config 合并默认值与用户配置，并以 fx 模块提供给各业务模块
package config

import (
	"go.uber.org/fx"

	"github.com/weisyn/powminer/internal/config/consensus"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/types"
)

// ConfigParams 配置模块依赖
type ConfigParams struct {
	fx.In

	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 配置模块输出
type ConfigOutput struct {
	fx.Out

	Provider     config.Provider
	MinerOptions *consensus.MinerOptions
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(ProvideConfigServices),
	)
}

// ProvideConfigServices 校验用户配置并创建配置提供者
//
// 命令行在加载时已校验过一次，这里兜底直接通过 app.WithAppConfig 传入的配置。
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}
	if appConfig != nil {
		if err := ValidateAppConfig(appConfig); err != nil {
			return ConfigOutput{}, err
		}
	}

	provider := NewProvider(appConfig)
	return ConfigOutput{
		Provider:     provider,
		MinerOptions: provider.GetMiner(),
	}, nil
}
