package types

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockProof 挖矿证明
//
// 记录一个已找到解的模板所需的全部可变字段：
// merkle 根（由 extranonce 决定）、extranonce 对、时间戳与 nonce。
// 模板根据证明物化出最终区块。
type BlockProof struct {
	MerkleRoot   chainhash.Hash // 使用 extranonce 计算出的 merkle 根
	ExtraNonceHi uint32         // extranonce 高 32 位
	ExtraNonceLo uint32         // extranonce 低 32 位
	Timestamp    time.Time      // 区块头时间戳
	Nonce        uint32         // 区块头 nonce
}

// ExtraNonce 返回合并后的 64 位 extranonce
func (p *BlockProof) ExtraNonce() uint64 {
	return uint64(p.ExtraNonceHi)<<32 | uint64(p.ExtraNonceLo)
}

// TxDesc 交易池中的交易描述
type TxDesc struct {
	Tx    *btcutil.Tx // 交易
	Fee   int64       // 手续费（satoshi）
	Added time.Time   // 接纳时间
}
