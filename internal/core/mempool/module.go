// 文件说明：
// 本文件定义内存池（mempool）组件的 Fx 模块装配入口，负责：
// 1) 通过依赖注入构造并输出 TxPool；
// 2) 统一管理组件生命周期日志；
// 3) 装配事件集成（出站发布 mempool.tx_added，入站处理 blockchain.tip_changed）。
//
// 设计约束：
// - 仅依赖公共接口（pkg/interfaces/*）与本组件实现；
// - 事件总线缺失时交易池照常工作，只是不再对外通知。
// Package mempool provides the transaction pool used by block templates.
package mempool

import (
	"context"

	"go.uber.org/fx"

	chainconfig "github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/internal/core/mempool/txpool"
	txpooleventhandler "github.com/weisyn/powminer/internal/core/mempool/txpool/event_handler"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	mempoolIfaces "github.com/weisyn/powminer/pkg/interfaces/mempool"
)

// ModuleInput 定义内存池模块的输入依赖
type ModuleInput struct {
	fx.In

	// ========== 配置依赖 ==========
	ConfigProvider config.Provider `optional:"false"` // 配置提供者

	// ========== 基础设施依赖 ==========
	Logger   log.Logger     `optional:"true"` // 日志记录器
	EventBus event.EventBus `optional:"true"` // 事件总线
	Clock    clock.Clock    `optional:"false"`

	// ========== 链依赖 ==========
	ChainReader chainif.ChainReader `optional:"false"` // 交易输入来源

	Lifecycle fx.Lifecycle
}

// ModuleOutput 定义内存池模块的统一输出
type ModuleOutput struct {
	fx.Out

	TxPool mempoolIfaces.TxPool // 交易池接口
}

// Module 返回统一的内存池模块
func Module() fx.Option {
	return fx.Module("mempool",
		fx.Provide(ProvideTxPool),
	)
}

// ProvideTxPool 创建交易池并装配事件集成
func ProvideTxPool(input ModuleInput) (ModuleOutput, error) {
	var mempoolLogger log.Logger
	if input.Logger != nil {
		mempoolLogger = input.Logger.With("module", "mempool")
	}

	params, err := chainconfig.NetParams(input.ConfigProvider.GetChain().Network)
	if err != nil {
		return ModuleOutput{}, err
	}

	pool, err := txpool.NewTxPool(
		input.ConfigProvider.GetTxPool(),
		mempoolLogger,
		input.ChainReader,
		params,
		input.Clock,
	)
	if err != nil {
		return ModuleOutput{}, err
	}

	var handler *txpooleventhandler.TxPoolEventHandler
	if input.EventBus != nil {
		pool.SetEventSink(txpooleventhandler.NewTxEventSink(input.EventBus, mempoolLogger))
		handler = txpooleventhandler.NewTxPoolEventHandler(mempoolLogger, input.EventBus, pool)
	} else if mempoolLogger != nil {
		mempoolLogger.Warn("EventBus未配置，跳过内存池事件集成")
	}

	input.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if mempoolLogger != nil {
				mempoolLogger.Info("🌊 内存池模块启动")
			}
			if handler != nil {
				return handler.Register()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if handler != nil {
				if err := handler.Unregister(); err != nil && mempoolLogger != nil {
					mempoolLogger.Warnf("取消交易池事件订阅失败: %v", err)
				}
			}
			if mempoolLogger != nil {
				mempoolLogger.Infof("🌊 内存池模块停止: pending=%d", pool.Count())
			}
			return pool.Close()
		},
	})

	return ModuleOutput{TxPool: pool}, nil
}
