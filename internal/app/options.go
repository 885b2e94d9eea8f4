package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/types"
)

const (
	defaultStartTimeout = 30 * time.Second
	defaultStopTimeout  = 30 * time.Second
)

// Option 应用选项
type Option func(*options)

// options 实现 config.AppOptions
type options struct {
	appConfig    *types.AppConfig
	enableAPI    bool
	startTimeout time.Duration
	stopTimeout  time.Duration
	extra        []fx.Option // 测试中替换协作者或取出内部服务
}

var _ config.AppOptions = (*options)(nil)

// WithAppConfig 使用已加载的应用配置，nil 时保持空配置（全部取默认值）
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		if appConfig != nil {
			o.appConfig = appConfig
		}
	}
}

// WithoutAPI 不装配HTTP控制接口与 WebSocket 推送
func WithoutAPI() Option {
	return func(o *options) { o.enableAPI = false }
}

// WithTimeouts 设置启动与停止超时，非正值保持默认
func WithTimeouts(start, stop time.Duration) Option {
	return func(o *options) {
		if start > 0 {
			o.startTimeout = start
		}
		if stop > 0 {
			o.stopTimeout = stop
		}
	}
}

// WithFxOptions 追加 fx 选项，例如 fx.Populate 取出内部服务
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) { o.extra = append(o.extra, opts...) }
}

func newOptions(opts ...Option) *options {
	o := &options{
		appConfig:    &types.AppConfig{},
		enableAPI:    true,
		startTimeout: defaultStartTimeout,
		stopTimeout:  defaultStopTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetAppConfig 返回用户配置
func (o *options) GetAppConfig() *types.AppConfig { return o.appConfig }
