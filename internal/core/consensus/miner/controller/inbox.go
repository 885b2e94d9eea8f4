package controller

import (
	"github.com/weisyn/powminer/pkg/types"
)

type inboxKind int

const (
	msgTipChanged inboxKind = iota
	msgMempoolEntry
)

func (k inboxKind) String() string {
	switch k {
	case msgTipChanged:
		return "tip_changed"
	case msgMempoolEntry:
		return "mempool_entry"
	default:
		return "unknown"
	}
}

// inboxMessage 投递给挖矿循环的通知
type inboxMessage struct {
	kind inboxKind
	tip  *types.ChainEntry
}

// NotifyMempoolEntry 交易池新增交易通知
//
// 累计通知数超过阈值后当前作业被取消，以便新模板纳入新交易。
func (s *MinerControllerService) NotifyMempoolEntry() {
	if !s.IsRunning() {
		return
	}
	s.enqueue(inboxMessage{kind: msgMempoolEntry})
}

// OnTipChanged 链尖变化通知
func (s *MinerControllerService) OnTipChanged(tip *types.ChainEntry) {
	if tip == nil || !s.IsRunning() {
		return
	}
	s.enqueue(inboxMessage{kind: msgTipChanged, tip: tip})
}

// enqueue 非阻塞投递，收件箱满时丢弃
func (s *MinerControllerService) enqueue(msg inboxMessage) {
	select {
	case s.inbox <- msg:
	default:
		s.logger.Warnf("矿工收件箱已满，丢弃通知: kind=%s", msg.kind)
	}
}

// drainInbox 处理收件箱中的全部通知，只能由挖矿循环调用
func (s *MinerControllerService) drainInbox() {
	for {
		select {
		case msg := <-s.inbox:
			s.handleMessage(msg)
		case <-s.stopReq:
			s.destroyActiveJob("stop")
		default:
			return
		}
	}
}

func (s *MinerControllerService) handleMessage(msg inboxMessage) {
	switch msg.kind {
	case msgMempoolEntry:
		s.handleMempoolEntry()
	case msgTipChanged:
		s.handleTipChanged(msg.tip)
	}
}

// handleMempoolEntry 计数不随作业重置，超过阈值后清零并取消作业
func (s *MinerControllerService) handleMempoolEntry() {
	if s.activeJob == nil {
		return
	}
	s.mempoolSince++
	if s.mempoolSince > s.options.MempoolStaleThreshold {
		s.mempoolSince = 0
		s.destroyActiveJob("mempool")
	}
}

// handleTipChanged 作业的父哈希等于新链尖的父哈希时取消作业
//
// 比较的是两者的父哈希而不是新链尖自身的哈希：同一父区块上出现了竞争区块时，
// 当前作业与新链尖处于同一高度，作业需要在新链尖上重建。条件按原有行为保留。
func (s *MinerControllerService) handleTipChanged(tip *types.ChainEntry) {
	if s.activeJob == nil || tip == nil {
		return
	}
	if s.activeJob.Attempt().ParentHash() == tip.PrevHash {
		s.destroyActiveJob("tip")
	}
}

// destroyActiveJob 取消当前作业；已取消或已提交的作业保持不变
func (s *MinerControllerService) destroyActiveJob(reason string) {
	j := s.activeJob
	if j == nil || j.IsDestroyed() || j.IsCommitted() {
		return
	}
	if err := j.Destroy(); err != nil {
		s.logger.Warnf("取消作业失败: job=%s err=%v", j.ID(), err)
		return
	}
	minerJobsCancelled.WithLabelValues(reason).Inc()
	s.logger.Infof("作业已取消: job=%s reason=%s", j.ID(), reason)
}
