// Package clock 提供时间源实现：系统时钟、NTP 校正时钟与测试用时钟
package clock

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/powminer/pkg/interfaces/config"
	infraClock "github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
)

// ModuleInput 时钟模块输入依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger `optional:"true"`
}

// Module 返回时钟模块
func Module() fx.Option {
	return fx.Module("clock",
		fx.Provide(ProvideClock),
	)
}

// ProvideClock 按配置创建时钟
func ProvideClock(input ModuleInput) (infraClock.Clock, error) {
	opts := input.Provider.GetClock()

	switch opts.Source {
	case "", "system":
		return systemClock{}, nil
	case "ntp":
		c := NewNTPClock(opts.NTPServer, opts.SyncInterval)
		if _, _, _, err := c.Health(); err != nil && input.Logger != nil {
			input.Logger.Warnf("NTP 首次同步失败，暂用本地时间: server=%s err=%v", opts.NTPServer, err)
		}
		if err := RegisterClockMetrics(prometheus.DefaultRegisterer, c.Health); err != nil && input.Logger != nil {
			input.Logger.Warnf("注册时钟指标失败: %v", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("未知时钟类型: %s", opts.Source)
	}
}

// systemClock 直接使用本地时间
type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }
func (systemClock) Unix() int64                     { return time.Now().Unix() }
