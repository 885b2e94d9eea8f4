// Package consensus 提供挖矿协调器的配置。
package consensus

import (
	configtypes "github.com/weisyn/powminer/pkg/types"
)

// MinerOptions 矿工配置选项
type MinerOptions struct {
	Address               string `json:"address"`                 // 出块奖励地址（空表示由区块模板源决定）
	AutoStart             bool   `json:"auto_start"`              // 启动时自动开始挖矿
	Workers               int    `json:"workers"`                 // 工作协程数
	NonceIntervalCount    int    `json:"nonce_interval_count"`    // nonce 窗口数
	MempoolStaleThreshold int    `json:"mempool_stale_threshold"` // 交易池通知阈值
	InboxSize             int    `json:"inbox_size"`              // 收件箱容量
}

// Config 矿工配置实现
type Config struct {
	options *MinerOptions
}

// New 创建矿工配置
func New(userConfig *configtypes.UserMinerConfig) *Config {
	options := createDefaultMinerOptions()
	if userConfig != nil {
		applyUserMinerConfig(options, userConfig)
	}
	return &Config{options: options}
}

func createDefaultMinerOptions() *MinerOptions {
	return &MinerOptions{
		AutoStart:             defaultAutoStart,
		Workers:               defaultWorkers,
		NonceIntervalCount:    defaultNonceIntervalCount,
		MempoolStaleThreshold: defaultMempoolStaleThreshold,
		InboxSize:             defaultInboxSize,
	}
}

// applyUserMinerConfig 应用用户配置，非法值保留默认
func applyUserMinerConfig(options *MinerOptions, user *configtypes.UserMinerConfig) {
	if user.Address != nil {
		options.Address = *user.Address
	}
	if user.AutoStart != nil {
		options.AutoStart = *user.AutoStart
	}
	if user.Workers != nil && *user.Workers >= 0 {
		options.Workers = *user.Workers
	}
	if user.NonceIntervalCount != nil && *user.NonceIntervalCount > 0 {
		options.NonceIntervalCount = *user.NonceIntervalCount
	}
	if user.MempoolStaleThreshold != nil && *user.MempoolStaleThreshold > 0 {
		options.MempoolStaleThreshold = *user.MempoolStaleThreshold
	}
	if user.InboxSize != nil && *user.InboxSize > 0 {
		options.InboxSize = *user.InboxSize
	}
}

// GetOptions 获取矿工配置选项
func (c *Config) GetOptions() *MinerOptions {
	return c.options
}
