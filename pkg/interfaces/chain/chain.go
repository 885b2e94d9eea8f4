// Package chain 定义链服务的公共接口
//
// 📋 **链服务 (Chain Service)**
//
// 开发链维护一条线性的最佳链与对应的 UTXO 集合：
// - 挖矿协调器通过 Append 提交区块，通过 Tip 获取模板父区块
// - 区块模板源与交易池通过 FetchUtxoView 获取交易输入
package chain

import (
	"context"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/weisyn/powminer/pkg/types"
)

// ChainReader 链只读视图
type ChainReader interface {
	// Tip 当前链尖
	Tip() *types.ChainEntry

	// EntryByHeight 按高度获取最佳链上的条目
	EntryByHeight(height uint32) (*types.ChainEntry, bool)

	// Block 按哈希获取区块
	Block(ctx context.Context, hash chainhash.Hash) (*btcutil.Block, error)

	// FetchUtxoView 获取包含交易全部输入的 UTXO 视图（条目为副本）
	FetchUtxoView(tx *btcutil.Tx) *blockchain.UtxoViewpoint
}

// ChainService 链服务
type ChainService interface {
	ChainReader

	// Append 追加区块
	//
	// 校验失败返回 *types.ValidationError；父区块已不是链尖时返回 (nil, nil)。
	Append(ctx context.Context, block *btcutil.Block) (*types.ChainEntry, error)
}
