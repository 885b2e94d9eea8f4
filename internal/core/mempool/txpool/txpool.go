// 文件说明：
// 本文件实现交易池（TxPool）的存储与校验逻辑：
// - 接纳前执行 btcd 的交易结构校验、输入金额校验与脚本校验；
// - 输入从链的 UTXO 视图获取，不支持花费池内未确认交易的输出；
// - 以 outpoint 索引检测池内双花；
// - 按到达顺序向区块模板提供待打包交易；
// - 链尖变化时移除已确认或与新区块冲突的交易。
package txpool

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/weisyn/powminer/internal/config/txpool"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	mempoolIfaces "github.com/weisyn/powminer/pkg/interfaces/mempool"
	"github.com/weisyn/powminer/pkg/types"
)

// TxPool 交易池
type TxPool struct {
	config *txpool.TxPoolOptions
	chain  chainif.ChainReader
	params *chaincfg.Params
	clock  clock.Clock

	logger    log.Logger
	eventSink TxEventSink

	mu        sync.RWMutex
	txs       map[chainhash.Hash]*types.TxDesc
	order     []chainhash.Hash // 到达顺序
	outpoints map[wire.OutPoint]chainhash.Hash
	closed    bool
}

// NewTxPool 创建交易池
func NewTxPool(
	config *txpool.TxPoolOptions,
	logger log.Logger,
	chain chainif.ChainReader,
	params *chaincfg.Params,
	clk clock.Clock,
) (*TxPool, error) {
	if config == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if chain == nil || params == nil {
		return nil, fmt.Errorf("交易池需要链视图与网络参数")
	}
	return &TxPool{
		config:    config,
		chain:     chain,
		params:    params,
		clock:     clk,
		logger:    logger,
		eventSink: NoopTxEventSink{},
		txs:       make(map[chainhash.Hash]*types.TxDesc),
		outpoints: make(map[wire.OutPoint]chainhash.Hash),
	}, nil
}

// SetEventSink 注入事件下沉
func (p *TxPool) SetEventSink(sink TxEventSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sink == nil {
		sink = NoopTxEventSink{}
	}
	p.eventSink = sink
}

// SubmitTx 校验并接纳交易
func (p *TxPool) SubmitTx(tx *btcutil.Tx) (*types.TxDesc, error) {
	if tx == nil {
		return nil, ErrInvalidTransaction
	}
	if err := blockchain.CheckTransactionSanity(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if blockchain.IsCoinBase(tx) {
		return nil, ErrCoinbaseTx
	}

	hash := *tx.Hash()
	if err := p.checkAdmission(hash, tx); err != nil {
		return nil, err
	}

	// 输入校验在锁外进行，链视图自身是并发安全的
	fee, err := p.validateInputs(tx)
	if err != nil {
		return nil, err
	}

	desc := &types.TxDesc{Tx: tx, Fee: fee, Added: p.clock.Now()}

	p.mu.Lock()
	// 重新检查，校验期间可能有相同或冲突的交易进入
	if err := p.checkAdmissionLocked(hash, tx); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.txs[hash] = desc
	p.order = append(p.order, hash)
	for _, txIn := range tx.MsgTx().TxIn {
		p.outpoints[txIn.PreviousOutPoint] = hash
	}
	sink := p.eventSink
	count := len(p.txs)
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.Debugf("交易已接纳: txid=%s fee=%d pool=%d", hash, fee, count)
	}
	sink.OnTxAdded(desc)
	return desc, nil
}

func (p *TxPool) checkAdmission(hash chainhash.Hash, tx *btcutil.Tx) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.checkAdmissionLocked(hash, tx)
}

func (p *TxPool) checkAdmissionLocked(hash chainhash.Hash, tx *btcutil.Tx) error {
	if p.closed {
		return ErrTxPoolClosed
	}
	if _, ok := p.txs[hash]; ok {
		return ErrTxAlreadyExists
	}
	if len(p.txs) >= p.config.MaxSize {
		return ErrTxPoolFull
	}
	for _, txIn := range tx.MsgTx().TxIn {
		if spender, ok := p.outpoints[txIn.PreviousOutPoint]; ok {
			return fmt.Errorf("%w: %s 已被 %s 花费", ErrDuplicateUTXOSpend, txIn.PreviousOutPoint, spender)
		}
	}
	return nil
}

// validateInputs 校验输入存在、金额与脚本，返回手续费
func (p *TxPool) validateInputs(tx *btcutil.Tx) (int64, error) {
	view := p.chain.FetchUtxoView(tx)
	for _, txIn := range tx.MsgTx().TxIn {
		entry := view.LookupEntry(txIn.PreviousOutPoint)
		if entry == nil || entry.IsSpent() {
			return 0, fmt.Errorf("%w: %s", ErrMissingInputs, txIn.PreviousOutPoint)
		}
	}

	nextHeight := int32(p.chain.Tip().Height) + 1
	fee, err := blockchain.CheckTransactionInputs(tx, nextHeight, view, p.params)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if err := blockchain.ValidateTransactionScripts(tx, view, txscript.StandardVerifyFlags, nil, nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return fee, nil
}

// GetTransactionsForMining 按到达顺序返回待打包交易
func (p *TxPool) GetTransactionsForMining() []*types.TxDesc {
	p.mu.RLock()
	defer p.mu.RUnlock()

	limit := len(p.order)
	if maxTxs := int(p.config.Mining.MaxTransactionsForMining); maxTxs > 0 && limit > maxTxs {
		limit = maxTxs
	}
	result := make([]*types.TxDesc, 0, limit)
	for _, hash := range p.order[:limit] {
		result = append(result, p.txs[hash])
	}
	return result
}

// HaveTransaction 交易是否在池中
func (p *TxPool) HaveTransaction(hash chainhash.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.txs[hash]
	return ok
}

// Count 池中交易数
func (p *TxPool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// RemoveConfirmed 移除区块中已确认的交易，以及与区块交易花费相同输入的交易
func (p *TxPool) RemoveConfirmed(block *btcutil.Block) int {
	if block == nil {
		return 0
	}

	p.mu.Lock()
	var removed []*types.TxDesc
	for _, tx := range block.Transactions() {
		if desc := p.removeLocked(*tx.Hash()); desc != nil {
			removed = append(removed, desc)
		}
		if blockchain.IsCoinBase(tx) {
			continue
		}
		for _, txIn := range tx.MsgTx().TxIn {
			if spender, ok := p.outpoints[txIn.PreviousOutPoint]; ok {
				if desc := p.removeLocked(spender); desc != nil {
					removed = append(removed, desc)
				}
			}
		}
	}
	sink := p.eventSink
	p.mu.Unlock()

	for _, desc := range removed {
		sink.OnTxRemoved(desc)
	}
	if len(removed) > 0 && p.logger != nil {
		p.logger.Debugf("移除已确认交易: block=%s removed=%d", block.Hash(), len(removed))
	}
	return len(removed)
}

func (p *TxPool) removeLocked(hash chainhash.Hash) *types.TxDesc {
	desc, ok := p.txs[hash]
	if !ok {
		return nil
	}
	delete(p.txs, hash)
	for _, txIn := range desc.Tx.MsgTx().TxIn {
		delete(p.outpoints, txIn.PreviousOutPoint)
	}
	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return desc
}

// Close 关闭交易池，之后的提交返回 ErrTxPoolClosed
func (p *TxPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

var _ mempoolIfaces.TxPool = (*TxPool)(nil)
