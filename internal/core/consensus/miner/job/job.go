// Package job 实现单个挖矿作业
//
// 作业包装一个区块模板（Attempt），维护 extranonce 计数、迭代次数与开始时间，
// 并以一次性的 commit / destroy 标志约束作业的终态。
package job

import (
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/google/uuid"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
)

// MaxNonce 区块头 nonce 的最大值
const MaxNonce = 0xFFFFFFFF

// MiningJob 挖矿作业
//
// 除 destroyed / committed 外的字段只由挖矿循环所在协程读写。
type MiningJob struct {
	id      uuid.UUID
	attempt interfaces.Attempt
	clock   clock.Clock

	extraNonceHi uint32
	extraNonceLo uint32
	iterations   uint64
	startTime    time.Time

	destroyed atomic.Bool
	committed atomic.Bool
}

// New 创建挖矿作业
func New(attempt interfaces.Attempt, clk clock.Clock) *MiningJob {
	return &MiningJob{
		id:        uuid.New(),
		attempt:   attempt,
		clock:     clk,
		startTime: clk.Now(),
	}
}

// ID 作业唯一标识
func (j *MiningJob) ID() string { return j.id.String() }

// Attempt 作业包装的区块模板
func (j *MiningJob) Attempt() interfaces.Attempt { return j.attempt }

// ExtraNonce 当前 extranonce 对
func (j *MiningJob) ExtraNonce() (hi, lo uint32) { return j.extraNonceHi, j.extraNonceLo }

// Iterations 已耗尽的 extranonce 代数
func (j *MiningJob) Iterations() uint64 { return j.iterations }

// StartTime 开始挖矿时间
func (j *MiningJob) StartTime() time.Time { return j.startTime }

// MarkStart 以当前时间重置开始时间
func (j *MiningJob) MarkStart() { j.startTime = j.clock.Now() }

// IsDestroyed 是否已销毁
func (j *MiningJob) IsDestroyed() bool { return j.destroyed.Load() }

// IsCommitted 是否已提交
func (j *MiningJob) IsCommitted() bool { return j.committed.Load() }

// HeaderBytes 以当前 extranonce 派生区块头候选，nonce 为占位值 0
func (j *MiningJob) HeaderBytes() []byte {
	root := j.attempt.DeriveRoot(j.extraNonceHi, j.extraNonceLo)
	return j.attempt.BuildHeader(root, j.attempt.Timestamp(), 0)
}

// Commit 以找到的 nonce 物化最终区块
//
// 作业只能提交一次，且已销毁的作业不能提交。
func (j *MiningJob) Commit(nonce uint32) (*btcutil.Block, error) {
	if j.destroyed.Load() {
		return nil, ErrCommitDestroyedJob
	}
	if !j.committed.CompareAndSwap(false, true) {
		return nil, ErrJobAlreadyCommitted
	}

	proof := j.attempt.BuildProof(j.extraNonceHi, j.extraNonceLo, j.attempt.Timestamp(), nonce)
	return j.attempt.Commit(proof)
}

// Destroy 标记作业为已销毁
//
// 只设置标志，不中断正在进行的搜索；下一个检查点观察到后放弃该作业。
func (j *MiningJob) Destroy() error {
	if j.committed.Load() {
		return ErrDestroyCommittedJob
	}
	if !j.destroyed.CompareAndSwap(false, true) {
		return ErrJobAlreadyDestroyed
	}
	return nil
}

// UpdateExtraNonce 推进 64 位 extranonce 计数，低位溢出时向高位进位
func (j *MiningJob) UpdateExtraNonce() {
	j.extraNonceLo++
	if j.extraNonceLo == 0 {
		j.extraNonceHi++
	}
}

// Iterate 进入下一代 extranonce
func (j *MiningJob) Iterate() {
	j.iterations++
	j.UpdateExtraNonce()
}

// HashCount 累计哈希次数：已耗尽的代数乘以 2^32 再加上当前代内进度
func (j *MiningJob) HashCount(nonce uint64) uint64 {
	return j.iterations*(MaxNonce+1) + nonce
}

// HashRate 当前代内的算力（H/s），向下取整
func (j *MiningJob) HashRate(nonce uint64) uint64 {
	elapsed := j.clock.Since(j.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(nonce) / elapsed)
}

// Refresh 刷新模板
func (j *MiningJob) Refresh() error { return j.attempt.Refresh() }

// AddTX 校验后向模板加入交易
func (j *MiningJob) AddTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error {
	return j.attempt.AddTX(tx, view)
}

// PushTX 不校验直接向模板加入交易
func (j *MiningJob) PushTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error {
	return j.attempt.PushTX(tx, view)
}
