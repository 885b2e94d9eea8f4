package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weisyn/powminer/internal/config/api"
	"github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/internal/config/clock"
	"github.com/weisyn/powminer/internal/config/consensus"
	"github.com/weisyn/powminer/internal/config/event"
	"github.com/weisyn/powminer/internal/config/log"
	"github.com/weisyn/powminer/internal/config/txpool"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	var userLogConfig *types.UserLogConfig
	if p.appConfig != nil {
		userLogConfig = p.appConfig.Log
	}
	return log.New(userLogConfig).GetOptions()
}

// GetMiner 获取矿工配置
func (p *Provider) GetMiner() *consensus.MinerOptions {
	var userMinerConfig *types.UserMinerConfig
	if p.appConfig != nil {
		userMinerConfig = p.appConfig.Miner
	}
	return consensus.New(userMinerConfig).GetOptions()
}

// GetEvent 获取事件配置
func (p *Provider) GetEvent() *event.EventOptions {
	var userEventConfig *types.UserEventConfig
	if p.appConfig != nil {
		userEventConfig = p.appConfig.Event
	}
	return event.New(userEventConfig).GetOptions()
}

// GetAPI 获取API服务配置
func (p *Provider) GetAPI() *api.APIOptions {
	var userAPIConfig *types.UserAPIConfig
	if p.appConfig != nil {
		userAPIConfig = p.appConfig.API
	}
	return api.New(userAPIConfig).GetOptions()
}

// GetChain 获取链配置
func (p *Provider) GetChain() *chain.ChainOptions {
	var userChainConfig *types.UserChainConfig
	if p.appConfig != nil {
		userChainConfig = p.appConfig.Chain
	}
	return chain.New(userChainConfig).GetOptions()
}

// GetClock 获取时钟配置
func (p *Provider) GetClock() *clock.ClockOptions {
	var userClockConfig *types.UserClockConfig
	if p.appConfig != nil {
		userClockConfig = p.appConfig.Clock
	}
	return clock.New(userClockConfig).GetOptions()
}

// GetTxPool 获取交易池配置
func (p *Provider) GetTxPool() *txpool.TxPoolOptions {
	var userTxPoolConfig *types.UserTxPoolConfig
	if p.appConfig != nil {
		userTxPoolConfig = p.appConfig.TxPool
	}
	return txpool.New(userTxPoolConfig).GetOptions()
}

// LoadAppConfig 从JSON文件加载应用配置
// 路径为空时返回空配置，全部使用默认值
func LoadAppConfig(path string) (*types.AppConfig, error) {
	appConfig := &types.AppConfig{}
	if path == "" {
		return appConfig, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := json.Unmarshal(data, appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
	}
	return appConfig, nil
}
