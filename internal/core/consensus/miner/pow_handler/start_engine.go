package pow_handler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/weisyn/powminer/pkg/types"
)

// startPoWEngine 启动工作协程
func (s *PoWComputeService) startPoWEngine(ctx context.Context, params types.MiningParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if params.Workers < 0 {
		return fmt.Errorf("工作协程数无效: %d", params.Workers)
	}
	if params.Workers == 0 {
		params.Workers = runtime.NumCPU()
	}

	s.params = params
	s.tasks = make(chan *PoWTask)
	s.quit = make(chan struct{})
	for id := 0; id < params.Workers; id++ {
		s.wg.Add(1)
		go s.runWorker(id, s.tasks, s.quit)
	}
	s.isRunning = true

	if s.logger != nil {
		s.logger.Infof("PoW工作池已启动 workers=%d", params.Workers)
	}
	return nil
}

// runWorker 工作协程主循环
func (s *PoWComputeService) runWorker(id int, tasks <-chan *PoWTask, quit <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-quit:
			return
		case task := <-tasks:
			nonce, found := s.searcher(task.Header, task.Target, task.StartNonce, task.EndNonce)
			// 结果通道按分片数缓冲，发送不会阻塞
			task.Results <- &PoWResult{Found: found, Nonce: nonce, WorkerID: id}
		}
	}
}
