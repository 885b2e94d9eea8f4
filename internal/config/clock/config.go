package clock

import (
	"time"

	configtypes "github.com/weisyn/powminer/pkg/types"
)

// ClockOptions 时钟配置
type ClockOptions struct {
	Source       string        `json:"source"` // system | ntp
	NTPServer    string        `json:"ntp_server"`
	SyncInterval time.Duration `json:"sync_interval"`
}

// Config 提供访问选项
type Config struct {
	options *ClockOptions
}

// New 创建时钟配置
func New(userConfig *configtypes.UserClockConfig) *Config {
	opts := &ClockOptions{
		Source:       defaultSource,
		NTPServer:    defaultNTPServer,
		SyncInterval: defaultSyncInterval,
	}

	if userConfig != nil {
		if userConfig.Source != nil && *userConfig.Source != "" {
			opts.Source = *userConfig.Source
		}
		if userConfig.NTPServer != nil && *userConfig.NTPServer != "" {
			opts.NTPServer = *userConfig.NTPServer
		}
		if userConfig.SyncInterval != nil {
			if d, err := time.ParseDuration(*userConfig.SyncInterval); err == nil && d > 0 {
				opts.SyncInterval = d
			}
		}
	}

	return &Config{options: opts}
}

func (c *Config) GetOptions() *ClockOptions { return c.options }
