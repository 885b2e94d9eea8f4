// Package config 配置接口
package config

import (
	"github.com/weisyn/powminer/internal/config/api"
	"github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/internal/config/clock"
	"github.com/weisyn/powminer/internal/config/consensus"
	"github.com/weisyn/powminer/internal/config/event"
	"github.com/weisyn/powminer/internal/config/log"
	"github.com/weisyn/powminer/internal/config/txpool"
	"github.com/weisyn/powminer/pkg/types"
)

// AppOptions 启动时传入的用户配置来源
type AppOptions interface {
	GetAppConfig() *types.AppConfig
}

// Provider 配置提供者接口
//
// 每个方法返回已合并默认值与用户配置的完整选项。
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *log.LogOptions

	// GetMiner 获取矿工配置
	GetMiner() *consensus.MinerOptions

	// GetEvent 获取事件配置
	GetEvent() *event.EventOptions

	// GetAPI 获取HTTP控制接口配置
	GetAPI() *api.APIOptions

	// GetChain 获取链配置
	GetChain() *chain.ChainOptions

	// GetClock 获取时钟配置
	GetClock() *clock.ClockOptions

	// GetTxPool 获取交易池配置
	GetTxPool() *txpool.TxPoolOptions
}
