package blocktemplate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/mempool"
	"github.com/weisyn/powminer/pkg/types"
)

// Attempt btcd 格式的可变区块模板
type Attempt struct {
	params *chaincfg.Params
	clock  clock.Clock
	txPool mempool.TxPool

	version   int32
	parent    chainhash.Hash
	medianTS  time.Time // 父区块的过去中位时间
	height    uint32
	bits      uint32
	target    *big.Int
	payScript []byte

	mu        sync.RWMutex
	timestamp time.Time
	txs       []*btcutil.Tx // 不含币基交易
	fees      int64
}

func (a *Attempt) ParentHash() chainhash.Hash { return a.parent }
func (a *Attempt) Target() *big.Int           { return a.target }
func (a *Attempt) Bits() uint32               { return a.bits }
func (a *Attempt) Height() uint32             { return a.height }

// Timestamp 模板时间戳
func (a *Attempt) Timestamp() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.timestamp
}

// Transactions 模板中的非币基交易
func (a *Attempt) Transactions() []*btcutil.Tx {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*btcutil.Tx(nil), a.txs...)
}

// Fees 模板交易的手续费合计
func (a *Attempt) Fees() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fees
}

// DeriveRoot 以 extranonce 构造币基交易并计算 merkle 根
func (a *Attempt) DeriveRoot(extraNonceHi, extraNonceLo uint32) chainhash.Hash {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return blockchain.CalcMerkleRoot(a.blockTxs(extraNonceHi, extraNonceLo), false)
}

// BuildHeader 序列化 80 字节区块头
func (a *Attempt) BuildHeader(root chainhash.Hash, timestamp time.Time, nonce uint32) []byte {
	hdr := a.header(root, timestamp, nonce)
	var buf bytes.Buffer
	buf.Grow(wire.MaxBlockHeaderPayload)
	_ = hdr.Serialize(&buf)
	return buf.Bytes()
}

// BuildProof 构造挖矿证明
func (a *Attempt) BuildProof(extraNonceHi, extraNonceLo uint32, timestamp time.Time, nonce uint32) *types.BlockProof {
	return &types.BlockProof{
		MerkleRoot:   a.DeriveRoot(extraNonceHi, extraNonceLo),
		ExtraNonceHi: extraNonceHi,
		ExtraNonceLo: extraNonceLo,
		Timestamp:    timestamp,
		Nonce:        nonce,
	}
}

// Commit 按证明物化最终区块
func (a *Attempt) Commit(proof *types.BlockProof) (*btcutil.Block, error) {
	if proof == nil {
		return nil, fmt.Errorf("挖矿证明为空")
	}

	a.mu.RLock()
	txs := a.blockTxs(proof.ExtraNonceHi, proof.ExtraNonceLo)
	a.mu.RUnlock()

	root := blockchain.CalcMerkleRoot(txs, false)
	if root != proof.MerkleRoot {
		return nil, fmt.Errorf("merkle 根不匹配: 证明 %s 模板 %s", proof.MerkleRoot, root)
	}

	hdr := a.header(root, proof.Timestamp, proof.Nonce)
	msg := wire.NewMsgBlock(&hdr)
	for _, tx := range txs {
		if err := msg.AddTransaction(tx.MsgTx()); err != nil {
			return nil, err
		}
	}
	block := btcutil.NewBlock(msg)
	block.SetHeight(int32(a.height))
	return block, nil
}

// Refresh 重新从交易池拉取交易并更新时间戳
func (a *Attempt) Refresh() error {
	var descs []*types.TxDesc
	if a.txPool != nil {
		descs = a.txPool.GetTransactionsForMining()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.txs = a.txs[:0]
	a.fees = 0
	for _, desc := range descs {
		a.txs = append(a.txs, desc.Tx)
		a.fees += desc.Fee
	}
	a.timestamp = templateTime(a.clock.Now(), a.medianTS)
	return nil
}

// AddTX 校验输入后加入交易
func (a *Attempt) AddTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error {
	if view == nil {
		return fmt.Errorf("校验交易需要 UTXO 视图")
	}
	if err := blockchain.CheckTransactionSanity(tx); err != nil {
		return err
	}
	if blockchain.IsCoinBase(tx) {
		return fmt.Errorf("模板不接受币基交易")
	}
	fee, err := blockchain.CheckTransactionInputs(tx, int32(a.height), view, a.params)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.txs = append(a.txs, tx)
	a.fees += fee
	return nil
}

// PushTX 不校验直接加入交易；view 不为 nil 时按可找到的输入估算手续费
func (a *Attempt) PushTX(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) error {
	fee := estimateFee(tx, view)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.txs = append(a.txs, tx)
	a.fees += fee
	return nil
}

// coinbase 构造币基交易，调用方需持有读锁
func (a *Attempt) coinbase(extraNonceHi, extraNonceLo uint32) *btcutil.Tx {
	var extraNonce [8]byte
	binary.BigEndian.PutUint32(extraNonce[0:4], extraNonceHi)
	binary.BigEndian.PutUint32(extraNonce[4:8], extraNonceLo)

	sigScript, err := txscript.NewScriptBuilder().
		AddInt64(int64(a.height)).
		AddData(extraNonce[:]).
		Script()
	if err != nil {
		// 高度与固定长度数据不会超出脚本限制
		panic(fmt.Sprintf("构造币基脚本失败: %v", err))
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  sigScript,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	reward := blockchain.CalcBlockSubsidy(int32(a.height), a.params) + a.fees
	tx.AddTxOut(wire.NewTxOut(reward, a.payScript))
	return btcutil.NewTx(tx)
}

// blockTxs 币基交易加模板交易，调用方需持有读锁
func (a *Attempt) blockTxs(extraNonceHi, extraNonceLo uint32) []*btcutil.Tx {
	txs := make([]*btcutil.Tx, 0, len(a.txs)+1)
	txs = append(txs, a.coinbase(extraNonceHi, extraNonceLo))
	return append(txs, a.txs...)
}

func (a *Attempt) header(root chainhash.Hash, timestamp time.Time, nonce uint32) wire.BlockHeader {
	return wire.BlockHeader{
		Version:    a.version,
		PrevBlock:  a.parent,
		MerkleRoot: root,
		Timestamp:  timestamp,
		Bits:       a.bits,
		Nonce:      nonce,
	}
}

// estimateFee 输入金额减输出金额；任一输入缺失时返回 0
func estimateFee(tx *btcutil.Tx, view *blockchain.UtxoViewpoint) int64 {
	if view == nil {
		return 0
	}
	var in int64
	for _, txIn := range tx.MsgTx().TxIn {
		entry := view.LookupEntry(txIn.PreviousOutPoint)
		if entry == nil || entry.IsSpent() {
			return 0
		}
		in += entry.Amount()
	}
	var out int64
	for _, txOut := range tx.MsgTx().TxOut {
		out += txOut.Value
	}
	if in < out {
		return 0
	}
	return in - out
}

var _ interfaces.Attempt = (*Attempt)(nil)
