// Package testutil 提供共识模块测试用的 Mock 与假实现
package testutil

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// ==================== 日志 ====================

// MockLogger 统一的日志Mock实现
type MockLogger struct{}

func (m *MockLogger) Debug(msg string)                          {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(msg string)                           {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(msg string)                           {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(msg string)                          {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *MockLogger) Sync() error                               { return nil }
func (m *MockLogger) GetZapLogger() *zap.Logger                 { return zap.NewNop() }

// ==================== 事件总线 ====================

// PublishedEvent 记录的一次发布
type PublishedEvent struct {
	Type event.EventType
	Args []interface{}
}

// MockEventBus 记录发布事件的事件总线
type MockEventBus struct {
	mu        sync.Mutex
	published []PublishedEvent
	handlers  map[event.EventType][]interface{}
}

// NewMockEventBus 创建事件总线Mock
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{handlers: make(map[event.EventType][]interface{})}
}

func (m *MockEventBus) Publish(eventType event.EventType, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedEvent{Type: eventType, Args: args})
}

func (m *MockEventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[eventType] = append(m.handlers[eventType], handler)
	return nil
}

func (m *MockEventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, eventType)
	return nil
}

func (m *MockEventBus) HasCallback(eventType event.EventType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[eventType]) > 0
}

// Events 返回指定类型的已发布事件
func (m *MockEventBus) Events(eventType event.EventType) []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublishedEvent
	for _, e := range m.published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Count 返回指定类型的已发布事件数量
func (m *MockEventBus) Count(eventType event.EventType) int {
	return len(m.Events(eventType))
}

// ==================== 区块模板 ====================

// FakeAttempt 可控的区块模板
//
// merkle 根的前 8 字节依次编码 extranonce 高位与低位（小端），
// 搜索器可从区块头偏移 36 处读回 extranonce 代数。
type FakeAttempt struct {
	mu sync.Mutex

	Parent      chainhash.Hash
	TargetValue *big.Int
	BitsValue   uint32
	HeightValue uint32
	Time        time.Time

	CommitErr  error
	RefreshErr error

	Proofs    []*types.BlockProof
	Refreshes int
	Added     []*btcutil.Tx
	Pushed    []*btcutil.Tx
}

// NewFakeAttempt 创建父哈希为 parent 的模板
func NewFakeAttempt(parent chainhash.Hash, height uint32) *FakeAttempt {
	return &FakeAttempt{
		Parent:      parent,
		TargetValue: blockchain.CompactToBig(0x207fffff),
		BitsValue:   0x207fffff,
		HeightValue: height,
		Time:        time.Unix(1_700_000_000, 0),
	}
}

func (a *FakeAttempt) ParentHash() chainhash.Hash { return a.Parent }
func (a *FakeAttempt) Target() *big.Int           { return a.TargetValue }
func (a *FakeAttempt) Bits() uint32               { return a.BitsValue }
func (a *FakeAttempt) Height() uint32             { return a.HeightValue }
func (a *FakeAttempt) Timestamp() time.Time       { return a.Time }

func (a *FakeAttempt) DeriveRoot(hi, lo uint32) chainhash.Hash {
	var root chainhash.Hash
	binary.LittleEndian.PutUint32(root[0:4], hi)
	binary.LittleEndian.PutUint32(root[4:8], lo)
	return root
}

func (a *FakeAttempt) BuildHeader(root chainhash.Hash, ts time.Time, nonce uint32) []byte {
	hdr := a.header(root, ts, nonce)
	return SerializeHeader(&hdr)
}

func (a *FakeAttempt) BuildProof(hi, lo uint32, ts time.Time, nonce uint32) *types.BlockProof {
	return &types.BlockProof{
		MerkleRoot:   a.DeriveRoot(hi, lo),
		ExtraNonceHi: hi,
		ExtraNonceLo: lo,
		Timestamp:    ts,
		Nonce:        nonce,
	}
}

func (a *FakeAttempt) Commit(proof *types.BlockProof) (*btcutil.Block, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.CommitErr != nil {
		return nil, a.CommitErr
	}
	a.Proofs = append(a.Proofs, proof)
	msg := wire.NewMsgBlock(ptrHeader(a.header(proof.MerkleRoot, proof.Timestamp, proof.Nonce)))
	return btcutil.NewBlock(msg), nil
}

func (a *FakeAttempt) Refresh() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Refreshes++
	return a.RefreshErr
}

func (a *FakeAttempt) AddTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if view == nil {
		return errors.New("view required")
	}
	a.Added = append(a.Added, tx)
	return nil
}

func (a *FakeAttempt) PushTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Pushed = append(a.Pushed, tx)
	return nil
}

// CommittedProofs 返回已提交的证明
func (a *FakeAttempt) CommittedProofs() []*types.BlockProof {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*types.BlockProof(nil), a.Proofs...)
}

func (a *FakeAttempt) header(root chainhash.Hash, ts time.Time, nonce uint32) wire.BlockHeader {
	return wire.BlockHeader{
		Version:    1,
		PrevBlock:  a.Parent,
		MerkleRoot: root,
		Timestamp:  ts,
		Bits:       a.BitsValue,
		Nonce:      nonce,
	}
}

func ptrHeader(h wire.BlockHeader) *wire.BlockHeader { return &h }

var _ interfaces.Attempt = (*FakeAttempt)(nil)

// ==================== 模板源 ====================

// FakeBlockSource 按顺序返回预置模板的模板源
type FakeBlockSource struct {
	mu       sync.Mutex
	Attempts []*FakeAttempt
	Err      error
	Calls    int
	// Next 为空时按 Attempts 顺序返回，用尽后复用最后一个
	Next func(call int) (interfaces.Attempt, error)
}

func (s *FakeBlockSource) CreateAttempt(ctx context.Context, tip *types.ChainEntry, address btcutil.Address) (interfaces.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.Calls
	s.Calls++
	if s.Next != nil {
		return s.Next(call)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Attempts) == 0 {
		return nil, errors.New("no attempt prepared")
	}
	if call >= len(s.Attempts) {
		call = len(s.Attempts) - 1
	}
	return s.Attempts[call], nil
}

// CallCount 返回调用次数
func (s *FakeBlockSource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// ==================== 链接收端 ====================

// FakeChainSink 以脚本函数决定追加结果的链接收端
type FakeChainSink struct {
	mu       sync.Mutex
	Blocks   []*btcutil.Block
	AppendFn func(call int, block *btcutil.Block) (*types.ChainEntry, error)
	TipEntry *types.ChainEntry
}

func (s *FakeChainSink) Append(ctx context.Context, block *btcutil.Block) (*types.ChainEntry, error) {
	s.mu.Lock()
	call := len(s.Blocks)
	s.Blocks = append(s.Blocks, block)
	fn := s.AppendFn
	s.mu.Unlock()

	if fn != nil {
		return fn(call, block)
	}
	hdr := block.MsgBlock().Header
	return &types.ChainEntry{
		Hash:      hdr.BlockHash(),
		PrevHash:  hdr.PrevBlock,
		Height:    uint32(call + 1),
		Bits:      hdr.Bits,
		Timestamp: hdr.Timestamp,
	}, nil
}

func (s *FakeChainSink) Tip() *types.ChainEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TipEntry
}

// AppendCount 返回追加次数
func (s *FakeChainSink) AppendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Blocks)
}

// ==================== 工作池 ====================

// FuncPool 以同步搜索函数实现的工作池
//
// OnSearch 在每次搜索返回前调用，可用于在窗口之间注入事件。
type FuncPool struct {
	mu       sync.Mutex
	Searcher interfaces.HashSearcher
	OnSearch func(call int, min, max uint64)
	calls    int
}

func (p *FuncPool) Search(ctx context.Context, header []byte, target *big.Int, min, max uint64) (uint32, bool, error) {
	p.mu.Lock()
	call := p.calls
	p.calls++
	hook := p.OnSearch
	p.mu.Unlock()

	nonce, found := p.Searcher(header, target, min, max)
	if hook != nil {
		hook(call, min, max)
	}
	return nonce, found, nil
}

// Calls 返回搜索次数
func (p *FuncPool) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// BlockingPool 阻塞直到被释放的工作池，用于观察停止流程
type BlockingPool struct {
	Entered chan struct{}
	Release chan struct{}
}

// NewBlockingPool 创建阻塞工作池
func NewBlockingPool() *BlockingPool {
	return &BlockingPool{
		Entered: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
}

func (p *BlockingPool) Search(ctx context.Context, header []byte, target *big.Int, min, max uint64) (uint32, bool, error) {
	select {
	case p.Entered <- struct{}{}:
	default:
	}
	<-p.Release
	return 0, false, nil
}
