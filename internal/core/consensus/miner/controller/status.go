package controller

import (
	"github.com/weisyn/powminer/internal/core/consensus/miner/job"
	"github.com/weisyn/powminer/pkg/types"
)

// statusSnapshot 最近一次进度上报的快照
type statusSnapshot struct {
	jobID       string
	height      uint32
	bits        uint32
	iterations  uint64
	hashCount   uint64
	hashRate    uint64
	blocksFound uint64
	lastError   string
}

// sendStatus 上报作业进度：日志、事件与指标
func (s *MinerControllerService) sendStatus(j *job.MiningJob, nonce uint64) {
	attempt := j.Attempt()
	hashCount := j.HashCount(nonce)
	hashRate := j.HashRate(nonce)

	s.logger.Infof("挖矿进度: hashrate=%dkh/s hashes=%d target=%d height=%d tip=%s",
		hashRate/1000, hashCount, attempt.Bits(), attempt.Height(), attempt.ParentHash())

	minerHashRate.Set(float64(hashRate))
	minerJobHashes.Set(float64(hashCount))
	minerIterations.Set(float64(j.Iterations()))

	s.statusMu.Lock()
	s.status.jobID = j.ID()
	s.status.height = attempt.Height()
	s.status.bits = attempt.Bits()
	s.status.iterations = j.Iterations()
	s.status.hashCount = hashCount
	s.status.hashRate = hashRate
	s.statusMu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(types.EventTypeMiningStatus, &types.MiningStatusEventData{
			JobID:      j.ID(),
			Height:     attempt.Height(),
			Bits:       attempt.Bits(),
			Iterations: j.Iterations(),
			Nonce:      nonce,
			HashCount:  hashCount,
			HashRate:   hashRate,
			Timestamp:  s.clock.Now(),
		})
	}
}

func (s *MinerControllerService) resetStatus() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	blocks := s.status.blocksFound
	s.status = statusSnapshot{blocksFound: blocks}
}

func (s *MinerControllerService) setLastError(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.lastError = err.Error()
}

func (s *MinerControllerService) incBlocksFound() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.blocksFound++
}
