package types

import (
	"time"
)

// MinerState 矿工状态枚举
//
// 🎯 **状态定义**: 定义矿工系统的所有可能状态
// 📋 **状态流转**: Idle → Active → Stopping → Idle；循环因致命错误退出时进入 Error
type MinerState int

const (
	MinerStateIdle     MinerState = iota // 空闲状态 - 初始状态和停止后状态
	MinerStateActive                     // 活跃状态 - 挖矿循环运行中
	MinerStateStopping                   // 停止中状态 - 已请求停止，等待循环退出
	MinerStateError                      // 错误状态 - 循环因致命错误退出，需要运维重新启动
)

// String 返回矿工状态的字符串表示
func (s MinerState) String() string {
	switch s {
	case MinerStateIdle:
		return "Idle"
	case MinerStateActive:
		return "Active"
	case MinerStateStopping:
		return "Stopping"
	case MinerStateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// MiningParameters 挖矿参数
type MiningParameters struct {
	Workers            int // 工作协程数量（0 表示使用 CPU 核数）
	NonceIntervalCount int // nonce 空间划分的窗口数
}

// MiningStatus 挖矿状态快照
type MiningStatus struct {
	Running      bool          `json:"running"`
	Stopping     bool          `json:"stopping"`
	State        string        `json:"state"`
	MinerAddress string        `json:"miner_address,omitempty"`
	JobID        string        `json:"job_id,omitempty"`
	Height       uint32        `json:"height,omitempty"`
	Bits         uint32        `json:"bits,omitempty"`
	Iterations   uint64        `json:"iterations"`
	HashCount    uint64        `json:"hash_count"`
	HashRate     uint64        `json:"hash_rate"`
	Uptime       time.Duration `json:"uptime"`
	BlocksFound  uint64        `json:"blocks_found"`
	LastError    string        `json:"last_error,omitempty"`
}
