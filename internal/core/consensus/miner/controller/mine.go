package controller

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/internal/core/consensus/miner/job"
)

// errNoSearcher 未注入同步搜索原语
var errNoSearcher = errors.New("未配置同步哈希搜索器")

// FindNonceRange 使用同步搜索原语在当前区块头上搜索整个 nonce 空间
func (s *MinerControllerService) FindNonceRange(j *job.MiningJob) (uint32, bool, error) {
	if s.searcher == nil {
		return 0, false, errNoSearcher
	}
	header := j.HeaderBytes()
	target := j.Attempt().Target()

	for min := uint64(0); min <= job.MaxNonce; min += s.interval {
		max := min + s.interval
		if nonce, ok := s.searcher(header, target, min, max); ok {
			return nonce, true, nil
		}
		s.sendStatus(j, clampNonce(max))
	}
	return 0, false, nil
}

// FindNonceRangeAsync 通过工作池按窗口搜索 nonce 空间
//
// 每个窗口结束后依次：命中则返回；处理收件箱；作业已取消则返回未找到；
// 否则上报进度。
func (s *MinerControllerService) FindNonceRangeAsync(ctx context.Context, j *job.MiningJob) (uint32, bool, error) {
	header := j.HeaderBytes()
	target := j.Attempt().Target()

	for min := uint64(0); min <= job.MaxNonce; min += s.interval {
		max := min + s.interval
		nonce, ok, err := s.pool.Search(ctx, header, target, min, max)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return nonce, true, nil
		}

		s.drainInbox()
		if j.IsDestroyed() {
			return 0, false, nil
		}
		s.sendStatus(j, clampNonce(max))
	}
	return 0, false, nil
}

// Mine 同步挖矿，直到找到解为止
func (s *MinerControllerService) Mine(j *job.MiningJob) (*btcutil.Block, error) {
	j.MarkStart()
	for {
		nonce, ok, err := s.FindNonceRange(j)
		if err != nil {
			return nil, err
		}
		if ok {
			return j.Commit(nonce)
		}
		s.iterate(j)
	}
}

// MineAsync 异步挖矿
//
// 作业被取消时返回 (nil, nil)，且不会提交作业。
func (s *MinerControllerService) MineAsync(ctx context.Context, j *job.MiningJob) (*btcutil.Block, error) {
	j.MarkStart()
	for {
		nonce, ok, err := s.FindNonceRangeAsync(ctx, j)
		if err != nil {
			return nil, err
		}
		if j.IsDestroyed() {
			return nil, nil
		}
		if ok {
			return j.Commit(nonce)
		}
		s.iterate(j)
	}
}

// iterate 推进 extranonce 并上报进度
func (s *MinerControllerService) iterate(j *job.MiningJob) {
	j.Iterate()
	s.sendStatus(j, 0)
}

func clampNonce(n uint64) uint64 {
	if n > job.MaxNonce {
		return job.MaxNonce
	}
	return n
}
