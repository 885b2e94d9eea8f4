package pow_handler

import (
	"context"
	"errors"
	"math/big"
)

// ErrPoolNotRunning 工作池未启动
var ErrPoolNotRunning = errors.New("pow worker pool is not running")

// search 将窗口切分为连续分片分发给工作协程，汇总全部结果
//
// 多个分片同时命中时返回最小的 nonce，结果与工作协程数无关。
func (s *PoWComputeService) search(ctx context.Context, header []byte, target *big.Int, min, max uint64) (uint32, bool, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return 0, false, ErrPoolNotRunning
	}
	tasks, quit, workers := s.tasks, s.quit, s.params.Workers
	s.mu.Unlock()

	if max > MaxNonce+1 {
		max = MaxNonce + 1
	}
	if min >= max {
		return 0, false, nil
	}

	chunks := splitRange(min, max, workers)
	results := make(chan *PoWResult, len(chunks))
	for _, c := range chunks {
		task := &PoWTask{
			Header:     append([]byte(nil), header...),
			Target:     target,
			StartNonce: c[0],
			EndNonce:   c[1],
			Results:    results,
		}
		select {
		case tasks <- task:
		case <-quit:
			return 0, false, ErrPoolNotRunning
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}

	var (
		best  uint32
		found bool
	)
	for range chunks {
		select {
		case r := <-results:
			if r.Found && (!found || r.Nonce < best) {
				best, found = r.Nonce, true
			}
		case <-quit:
			return 0, false, ErrPoolNotRunning
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}
	return best, found, nil
}

// splitRange 将 [min, max) 切分为至多 n 个连续且不重叠的分片
func splitRange(min, max uint64, n int) [][2]uint64 {
	if n < 1 {
		n = 1
	}
	span := max - min
	if uint64(n) > span {
		n = int(span)
	}
	size := span / uint64(n)
	rem := span % uint64(n)

	out := make([][2]uint64, 0, n)
	start := min
	for i := 0; i < n; i++ {
		end := start + size
		if uint64(i) < rem {
			end++
		}
		out = append(out, [2]uint64{start, end})
		start = end
	}
	return out
}
