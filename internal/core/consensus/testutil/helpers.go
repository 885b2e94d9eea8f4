package testutil

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
)

// SerializeHeader 序列化区块头为 80 字节
func SerializeHeader(hdr *wire.BlockHeader) []byte {
	var buf bytes.Buffer
	buf.Grow(wire.MaxBlockHeaderPayload)
	_ = hdr.Serialize(&buf)
	return buf.Bytes()
}

// ExtraNonceFromHeader 从 FakeAttempt 生成的区块头中读回 extranonce
func ExtraNonceFromHeader(header []byte) (hi, lo uint32) {
	// 版本 4 字节 + 父哈希 32 字节之后是 merkle 根
	hi = binary.LittleEndian.Uint32(header[36:40])
	lo = binary.LittleEndian.Uint32(header[40:44])
	return hi, lo
}

// NeverFound 从不命中的搜索原语
func NeverFound(header []byte, target *big.Int, min, max uint64) (uint32, bool) {
	return 0, false
}

// FoundAt 只在指定 extranonce 低位代数下命中 nonce 的搜索原语
func FoundAt(generation uint32, nonce uint32) interfaces.HashSearcher {
	return func(header []byte, target *big.Int, min, max uint64) (uint32, bool) {
		_, lo := ExtraNonceFromHeader(header)
		if lo == generation && uint64(nonce) >= min && uint64(nonce) < max {
			return nonce, true
		}
		return 0, false
	}
}

// SolveHeader 递增 nonce 直到区块头哈希不超过 bits 对应的目标
//
// 只适用于 regtest 这类极低难度，maxTries 次内未命中返回 false。
func SolveHeader(hdr *wire.BlockHeader, maxTries uint32) bool {
	target := blockchain.CompactToBig(hdr.Bits)
	for i := uint32(0); i < maxTries; i++ {
		hash := hdr.BlockHash()
		if blockchain.HashToBig(&hash).Cmp(target) <= 0 {
			return true
		}
		hdr.Nonce++
	}
	return false
}

// CoinbaseTx 构造带 BIP34 高度的币基交易
func CoinbaseTx(height int32, value int64, pkScript []byte) *wire.MsgTx {
	sigScript, _ := txscript.NewScriptBuilder().
		AddInt64(int64(height)).
		AddData([]byte{0, 0, 0, 0, 0, 0, 0, 0}).
		Script()

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  sigScript,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(value, pkScript))
	return tx
}

// OpTrueSpend 构造花费 OP_TRUE 输出的交易
func OpTrueSpend(prev wire.OutPoint, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&prev, nil, nil))
	tx.AddTxOut(wire.NewTxOut(value, []byte{txscript.OP_TRUE}))
	return tx
}
