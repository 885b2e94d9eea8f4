package http

import (
	"go.uber.org/fx"
)

// Module 返回HTTP控制接口模块
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(NewServer),
		// 确保服务器被构造，从而注册生命周期钩子
		fx.Invoke(func(*Server) {}),
	)
}
