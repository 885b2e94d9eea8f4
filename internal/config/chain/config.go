// Package chain 提供开发链（区块模板源与链接收端）的配置。
package chain

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"

	configtypes "github.com/weisyn/powminer/pkg/types"
)

// ChainOptions 链配置选项
type ChainOptions struct {
	Network         string        `json:"network"`
	CacheLifeWindow time.Duration `json:"cache_life_window"`
}

// Config 链配置实现
type Config struct {
	options *ChainOptions
}

// New 创建链配置
func New(userConfig *configtypes.UserChainConfig) *Config {
	options := &ChainOptions{
		Network:         defaultNetwork,
		CacheLifeWindow: defaultCacheLifeWindow,
	}

	if userConfig != nil {
		if userConfig.Network != nil && *userConfig.Network != "" {
			options.Network = *userConfig.Network
		}
		if userConfig.CacheLifeWindow != nil {
			if d, err := time.ParseDuration(*userConfig.CacheLifeWindow); err == nil && d > 0 {
				options.CacheLifeWindow = d
			}
		}
	}

	return &Config{options: options}
}

// GetOptions 获取链配置选项
func (c *Config) GetOptions() *ChainOptions {
	return c.options
}

// Params 返回网络对应的 btcd 链参数
func (c *Config) Params() (*chaincfg.Params, error) {
	return NetParams(c.options.Network)
}

// NetParams 根据网络名称解析链参数
func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("未知网络: %s", network)
	}
}
