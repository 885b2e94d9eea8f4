package pow_handler

import "context"

// stopPoWEngine 停止工作协程并等待退出
//
// 正在执行的分片会跑完当前范围后退出。
func (s *PoWComputeService) stopPoWEngine(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
	if s.logger != nil {
		s.logger.Info("PoW工作池已停止")
	}
	return nil
}
