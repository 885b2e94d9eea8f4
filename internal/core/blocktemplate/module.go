package blocktemplate

import (
	"go.uber.org/fx"

	chainconfig "github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/config"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/interfaces/mempool"
)

// ModuleInput 定义区块模板模块的输入依赖
type ModuleInput struct {
	fx.In

	ConfigProvider config.Provider     `optional:"false"`
	Logger         log.Logger          `optional:"false"`
	Clock          clock.Clock         `optional:"false"`
	ChainReader    chainif.ChainReader `optional:"false"`
	TxPool         mempool.TxPool      `optional:"true"`
}

// ModuleOutput 定义区块模板模块的输出
type ModuleOutput struct {
	fx.Out

	BlockSource interfaces.BlockSource
}

// Module 返回区块模板模块
func Module() fx.Option {
	return fx.Module("blocktemplate",
		fx.Provide(ProvideBlockSource),
	)
}

// ProvideBlockSource 创建区块模板源
func ProvideBlockSource(input ModuleInput) (ModuleOutput, error) {
	params, err := chainconfig.NetParams(input.ConfigProvider.GetChain().Network)
	if err != nil {
		return ModuleOutput{}, err
	}
	source := NewSource(
		input.Logger.With("module", "blocktemplate"),
		input.ChainReader,
		input.TxPool,
		params,
		input.Clock,
	)
	return ModuleOutput{BlockSource: source}, nil
}
