package types

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
)

// EventType 事件类型
type EventType string

// 挖矿相关事件类型
const (
	// 出站：矿工发布
	EventTypeBlockFound        EventType = "consensus.miner.block_found"   // 挖出并成功上链
	EventTypeMiningStatus      EventType = "consensus.miner.status"        // 挖矿进度
	EventTypeMinerError        EventType = "consensus.miner.error"         // 挖矿循环致命错误
	EventTypeMinerStateChanged EventType = "consensus.miner.state_changed" // 矿工状态变更

	// 入站：矿工订阅
	EventTypeTipChanged   EventType = "blockchain.tip_changed" // 链尖变化
	EventTypeMempoolEntry EventType = "mempool.tx_added"       // 交易池新增交易
)

// BlockFoundEventData 区块挖出事件数据
type BlockFoundEventData struct {
	JobID string         // 产出该区块的作业
	Block *btcutil.Block // 最终区块
	Entry *ChainEntry    // 链上条目
}

// MiningStatusEventData 挖矿进度事件数据
//
// 计数器取自作业自身的计算结果。
type MiningStatusEventData struct {
	JobID      string    // 作业ID
	Height     uint32    // 模板高度
	Bits       uint32    // 目标难度
	Iterations uint64    // 已消耗的 extranonce 代数
	Nonce      uint64    // 当前代内进度
	HashCount  uint64    // 累计哈希次数
	HashRate   uint64    // 算力（H/s）
	Timestamp  time.Time // 上报时间
}

// MinerErrorEventData 挖矿错误事件数据
type MinerErrorEventData struct {
	Err       error
	Timestamp time.Time
}

// MinerStateChangedEventData 矿工状态变更事件数据
type MinerStateChangedEventData struct {
	OldState     MinerState
	NewState     MinerState
	MinerAddress string
	Message      string
}

// TipChangedEventData 链尖变化事件数据
type TipChangedEventData struct {
	Tip   *ChainEntry
	Block *btcutil.Block // 新链尖对应的区块
}

// MempoolEntryEventData 交易池新增交易事件数据
type MempoolEntryEventData struct {
	Tx *btcutil.Tx
}
