// Package txpool 提供交易池配置。
package txpool

import configtypes "github.com/weisyn/powminer/pkg/types"

// TxPoolOptions 交易池配置选项
type TxPoolOptions struct {
	MaxSize int `json:"max_size"` // 交易池最大交易数

	// 挖矿配置
	Mining MiningOptions `json:"mining"`
}

// MiningOptions 挖矿配置选项
type MiningOptions struct {
	MaxTransactionsForMining uint32 `json:"max_transactions_for_mining"` // 单个模板最多包含的交易数
}

// Config 交易池配置实现
type Config struct {
	options *TxPoolOptions
}

// New 创建交易池配置实现
func New(userConfig *configtypes.UserTxPoolConfig) *Config {
	options := createDefaultTxPoolOptions()

	if userConfig != nil {
		if userConfig.MaxSize != nil && *userConfig.MaxSize > 0 {
			options.MaxSize = *userConfig.MaxSize
		}
		if userConfig.MaxTransactionsForMining != nil && *userConfig.MaxTransactionsForMining > 0 {
			options.Mining.MaxTransactionsForMining = *userConfig.MaxTransactionsForMining
		}
	}

	return &Config{options: options}
}

// createDefaultTxPoolOptions 创建默认交易池配置
func createDefaultTxPoolOptions() *TxPoolOptions {
	return &TxPoolOptions{
		MaxSize: defaultMaxSize,
		Mining: MiningOptions{
			MaxTransactionsForMining: defaultMaxTransactionsForMining,
		},
	}
}

// GetOptions 获取完整的交易池配置选项
func (c *Config) GetOptions() *TxPoolOptions {
	return c.options
}

// GetMaxSize 获取交易池最大容量
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}
