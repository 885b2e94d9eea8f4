package api

import (
	"go.uber.org/fx"

	"github.com/weisyn/powminer/internal/api/http"
)

// Module 返回API模块选项
//
// 目前只包含HTTP控制接口。
func Module() fx.Option {
	return fx.Module("api",
		http.Module(),
	)
}
