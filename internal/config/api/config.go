package api

import (
	"time"

	configtypes "github.com/weisyn/powminer/pkg/types"
)

// APIOptions HTTP控制接口配置选项
type APIOptions struct {
	Enabled         bool          `json:"enabled"`          // 是否启用HTTP服务
	ListenAddr      string        `json:"listen_addr"`      // 监听地址
	ReadTimeout     time.Duration `json:"read_timeout"`     // 读取超时时间
	WriteTimeout    time.Duration `json:"write_timeout"`    // 写入超时时间
	ShutdownTimeout time.Duration `json:"shutdown_timeout"` // 优雅关闭超时
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置实现
func New(userConfig *configtypes.UserAPIConfig) *Config {
	options := &APIOptions{
		Enabled:         defaultEnabled,
		ListenAddr:      defaultListenAddr,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.ListenAddr != nil && *userConfig.ListenAddr != "" {
			options.ListenAddr = *userConfig.ListenAddr
		}
	}

	return &Config{options: options}
}

// GetOptions 获取API配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}
