// Package mempool 定义交易池的公共接口
package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/weisyn/powminer/pkg/types"
)

// TxPool 交易池接口
type TxPool interface {
	// SubmitTx 校验并接纳交易，成功后发布 mempool.tx_added 事件
	SubmitTx(tx *btcutil.Tx) (*types.TxDesc, error)

	// GetTransactionsForMining 按接纳顺序返回候选交易
	GetTransactionsForMining() []*types.TxDesc

	// HaveTransaction 交易是否在池中
	HaveTransaction(hash chainhash.Hash) bool

	// Count 池中交易数
	Count() int
}
