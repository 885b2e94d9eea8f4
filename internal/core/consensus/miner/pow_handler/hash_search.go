package pow_handler

import (
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// MaxNonce 区块头 nonce 上界
	MaxNonce = 0xFFFFFFFF

	// nonceOffset 80 字节区块头中 nonce 字段的偏移
	nonceOffset = 76
)

// SearchNonce 同步搜索满足目标的 nonce
//
// 扫描 [min, max) 与 [0, MaxNonce] 的交集，返回第一个使双 SHA-256
// 区块头哈希不超过 target 的 nonce。header 不会被修改。
func SearchNonce(header []byte, target *big.Int, min, max uint64) (uint32, bool) {
	if len(header) != wire.MaxBlockHeaderPayload || target == nil {
		return 0, false
	}
	end := max
	if end > MaxNonce+1 {
		end = MaxNonce + 1
	}

	buf := make([]byte, len(header))
	copy(buf, header)

	for nonce := min; nonce < end; nonce++ {
		binary.LittleEndian.PutUint32(buf[nonceOffset:], uint32(nonce))
		hash := chainhash.DoubleHashH(buf)
		if blockchain.HashToBig(&hash).Cmp(target) <= 0 {
			return uint32(nonce), true
		}
	}
	return 0, false
}

// VerifyHeader 校验区块头是否满足目标
func VerifyHeader(header *wire.BlockHeader, target *big.Int) bool {
	hash := header.BlockHash()
	return blockchain.HashToBig(&hash).Cmp(target) <= 0
}
