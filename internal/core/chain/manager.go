// Package chain 提供开发链的实现
//
// 🔗 **Chain 模块 (Chain Module)**
//
// 开发链是挖矿协调器的参考 ChainSink：
// - 以网络参数中的创世区块为起点维护一条线性最佳链
// - 追加区块时执行结构、工作量、难度、时间戳、BIP34 高度与输入校验
// - 维护 UTXO 集合，供区块模板源与交易池获取交易输入
// - 区块体以序列化形式缓存在内存存储中
// - 链尖变化时发布 blockchain.tip_changed 事件
//
// 父区块不是当前链尖的区块（父区块竞争）不会被接纳，也不视为校验失败。
package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/golang/snappy"

	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/powminer/pkg/types"
)

// ErrBlockNotFound 区块不存在或已被缓存淘汰
var ErrBlockNotFound = errors.New("区块不存在")

// medianTimeBlocks 计算过去中位时间使用的区块数
const medianTimeBlocks = 11

// Service 开发链服务
type Service struct {
	logger   log.Logger
	eventBus event.EventBus
	params   *chaincfg.Params
	store    storage.MemoryStore

	timeSource blockchain.MedianTimeSource

	mu       sync.RWMutex
	entries  map[chainhash.Hash]*types.ChainEntry // 已接纳的全部区块
	byHeight []*types.ChainEntry                  // 最佳链，下标即高度
	utxos    *blockchain.UtxoViewpoint
}

// New 创建开发链，并以网络参数中的创世区块初始化
func New(logger log.Logger, eventBus event.EventBus, params *chaincfg.Params, store storage.MemoryStore) (*Service, error) {
	if params == nil || params.GenesisBlock == nil {
		return nil, fmt.Errorf("网络参数缺少创世区块")
	}

	s := &Service{
		logger:     logger,
		eventBus:   eventBus,
		params:     params,
		store:      store,
		timeSource: blockchain.NewMedianTime(),
		entries:    make(map[chainhash.Hash]*types.ChainEntry),
		utxos:      blockchain.NewUtxoViewpoint(),
	}

	genesis := btcutil.NewBlock(params.GenesisBlock)
	entry := newEntry(genesis, 0, s.pastMedianTime(params.GenesisBlock.Header.Timestamp))
	s.entries[entry.Hash] = entry
	s.byHeight = append(s.byHeight, entry)
	if err := s.cacheBlock(context.Background(), genesis); err != nil {
		return nil, fmt.Errorf("缓存创世区块失败: %w", err)
	}

	if logger != nil {
		logger.Infof("开发链已初始化: network=%s genesis=%s bits=%08x", params.Name, entry.Hash, entry.Bits)
	}
	return s, nil
}

// Params 网络参数
func (s *Service) Params() *chaincfg.Params { return s.params }

// Tip 当前链尖
func (s *Service) Tip() *types.ChainEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byHeight[len(s.byHeight)-1]
}

// EntryByHeight 按高度获取最佳链上的条目
func (s *Service) EntryByHeight(height uint32) (*types.ChainEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(height) >= len(s.byHeight) {
		return nil, false
	}
	return s.byHeight[height], true
}

// Block 从缓存读取区块
func (s *Service) Block(ctx context.Context, hash chainhash.Hash) (*btcutil.Block, error) {
	compressed, ok, err := s.store.Get(ctx, blockKey(hash))
	if err != nil {
		return nil, fmt.Errorf("读取区块缓存失败: %w", err)
	}
	if !ok {
		return nil, ErrBlockNotFound
	}
	raw, err := decodeBlockBytes(compressed)
	if err != nil {
		return nil, fmt.Errorf("解压区块 %s 失败: %w", hash, err)
	}
	return btcutil.NewBlockFromBytes(raw)
}

// FetchUtxoView 获取包含交易全部输入的 UTXO 视图，条目为副本
func (s *Service) FetchUtxoView(tx *btcutil.Tx) *blockchain.UtxoViewpoint {
	view := blockchain.NewUtxoViewpoint()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, txIn := range tx.MsgTx().TxIn {
		if entry := s.utxos.LookupEntry(txIn.PreviousOutPoint); entry != nil {
			view.Entries()[txIn.PreviousOutPoint] = entry.Clone()
		}
	}
	return view
}

// cacheBlock 以 snappy 压缩后的序列化形式缓存区块
func (s *Service) cacheBlock(ctx context.Context, block *btcutil.Block) error {
	raw, err := block.Bytes()
	if err != nil {
		return err
	}
	return s.store.Set(ctx, blockKey(*block.Hash()), snappy.Encode(nil, raw))
}

// decodeBlockBytes 解压缓存内容，解压后长度不得超过区块上限
func decodeBlockBytes(compressed []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return nil, err
	}
	if n > wire.MaxBlockPayload {
		return nil, fmt.Errorf("解压后长度 %d 超过上限 %d", n, wire.MaxBlockPayload)
	}
	return snappy.Decode(nil, compressed)
}

func blockKey(hash chainhash.Hash) string {
	return "block:" + hash.String()
}

// pastMedianTime 以 ts 为最新时间戳，连同最佳链末尾最多 10 个区块计算中位时间，
// 调用方需持有锁
func (s *Service) pastMedianTime(ts time.Time) time.Time {
	timestamps := []int64{ts.Unix()}
	for i := len(s.byHeight) - 1; i >= 0 && len(timestamps) < medianTimeBlocks; i-- {
		timestamps = append(timestamps, s.byHeight[i].Timestamp.Unix())
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return time.Unix(timestamps[len(timestamps)/2], 0)
}

func newEntry(block *btcutil.Block, height uint32, medianTime time.Time) *types.ChainEntry {
	hdr := block.MsgBlock().Header
	return &types.ChainEntry{
		Hash:       *block.Hash(),
		PrevHash:   hdr.PrevBlock,
		Height:     height,
		Bits:       hdr.Bits,
		Timestamp:  hdr.Timestamp,
		MedianTime: medianTime,
	}
}

var _ chainif.ChainService = (*Service)(nil)
