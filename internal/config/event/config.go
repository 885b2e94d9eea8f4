package event

import (
	configtypes "github.com/weisyn/powminer/pkg/types"
)

// EventOptions 事件总线配置
type EventOptions struct {
	Enabled        bool `json:"enabled"`
	MaxSubscribers int  `json:"max_subscribers"` // 0 表示不限
}

// Config 事件配置实现
type Config struct {
	options *EventOptions
}

// New 以默认值为基础叠加用户配置
func New(userConfig *configtypes.UserEventConfig) *Config {
	options := &EventOptions{
		Enabled:        defaultEnabled,
		MaxSubscribers: defaultMaxSubscribers,
	}
	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.MaxSubscribers != nil && *userConfig.MaxSubscribers >= 0 {
			options.MaxSubscribers = *userConfig.MaxSubscribers
		}
	}
	return &Config{options: options}
}

// FromOptions 由已合并的选项构造，供事件模块复用 Provider 的结果
func FromOptions(options *EventOptions) *Config {
	if options == nil {
		return New(nil)
	}
	copied := *options
	return &Config{options: &copied}
}

func (c *Config) GetOptions() *EventOptions { return c.options }
func (c *Config) IsEnabled() bool           { return c.options.Enabled }
func (c *Config) GetMaxSubscribers() int    { return c.options.MaxSubscribers }
