package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChainEntry 链上区块索引条目
//
// 由 ChainSink 在区块追加成功后返回，也作为链尖（tip）在事件中传递。
type ChainEntry struct {
	Hash      chainhash.Hash // 区块哈希
	PrevHash  chainhash.Hash // 父区块哈希
	Height    uint32         // 区块高度
	Bits      uint32         // 紧凑难度
	Timestamp time.Time      // 区块时间戳

	// MedianTime 本区块及其之前最多 10 个区块时间戳的中位数，
	// 子区块时间戳必须晚于该值
	MedianTime time.Time
}

// String 返回条目的简短描述
func (e *ChainEntry) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.Hash.String()
}
