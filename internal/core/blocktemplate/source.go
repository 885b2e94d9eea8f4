// Package blocktemplate 实现区块模板源
//
// 📦 **区块模板源 (Block Template Source)**
//
// 在开发链链尖之上构造 btcd 格式的区块模板：
// - 币基交易的签名脚本依次包含区块高度（BIP34）与 8 字节 extranonce
// - 奖励支付到指定地址；未指定地址时使用 OP_TRUE 脚本
// - 候选交易取自交易池，手续费计入币基金额
//
// 模板只负责区块内容，nonce 搜索与提交由挖矿协调器完成。
package blocktemplate

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/weisyn/powminer/internal/core/consensus/interfaces"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/interfaces/mempool"
	"github.com/weisyn/powminer/pkg/types"
)

// blockVersion 模板区块版本（BIP9 版本位前缀）
const blockVersion int32 = 0x20000000

// maxFutureDrift 模板时间戳允许领先本地时钟的上限，比链的未来时间限制少留一分钟
const maxFutureDrift = time.Duration(blockchain.MaxTimeOffsetSeconds)*time.Second - time.Minute

// Source 区块模板源
type Source struct {
	logger log.Logger
	chain  chainif.ChainReader
	txPool mempool.TxPool // 可为 nil，此时模板只包含币基交易
	params *chaincfg.Params
	clock  clock.Clock
}

// NewSource 创建区块模板源
func NewSource(logger log.Logger, chain chainif.ChainReader, txPool mempool.TxPool, params *chaincfg.Params, clk clock.Clock) *Source {
	return &Source{
		logger: logger,
		chain:  chain,
		txPool: txPool,
		params: params,
		clock:  clk,
	}
}

// CreateAttempt 基于 tip 创建模板；tip 为 nil 时使用当前链尖
func (s *Source) CreateAttempt(ctx context.Context, tip *types.ChainEntry, address btcutil.Address) (interfaces.Attempt, error) {
	if tip == nil {
		tip = s.chain.Tip()
	}
	if tip == nil {
		return nil, fmt.Errorf("链尖不可用")
	}

	payScript, err := payoutScript(address)
	if err != nil {
		return nil, err
	}

	if err := s.waitForTimestamp(ctx, time.Unix(tip.MedianTime.Unix()+1, 0)); err != nil {
		return nil, err
	}

	a := &Attempt{
		params:    s.params,
		clock:     s.clock,
		txPool:    s.txPool,
		version:   blockVersion,
		parent:    tip.Hash,
		medianTS:  tip.MedianTime,
		height:    tip.Height + 1,
		bits:      tip.Bits,
		target:    blockchain.CompactToBig(tip.Bits),
		payScript: payScript,
	}
	if err := a.Refresh(); err != nil {
		return nil, fmt.Errorf("初始化模板失败: %w", err)
	}

	if s.logger != nil {
		s.logger.Debugf("创建区块模板: height=%d parent=%s txs=%d fees=%d", a.height, a.parent, len(a.txs), a.fees)
	}
	return a, nil
}

// payoutScript 奖励输出脚本
func payoutScript(address btcutil.Address) ([]byte, error) {
	if address == nil {
		return []byte{txscript.OP_TRUE}, nil
	}
	script, err := txscript.PayToAddrScript(address)
	if err != nil {
		return nil, fmt.Errorf("构造奖励脚本失败: %w", err)
	}
	return script, nil
}

// waitForTimestamp 最小可用时间戳超出本地时钟 maxFutureDrift 时等待时钟追上
//
// 出块快于每秒一个时，中位时间规则会把时间戳推到本地时钟之前；
// 不等待则区块会因时间过于超前被链拒绝。
func (s *Source) waitForTimestamp(ctx context.Context, minTS time.Time) error {
	wait := minTS.Sub(s.clock.Now().Add(maxFutureDrift))
	if wait <= 0 {
		return nil
	}
	if s.logger != nil {
		s.logger.Debugf("模板时间戳领先本地时钟过多，等待 %s", wait)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// templateTime 模板时间戳：当前时间取整到秒，且严格晚于父区块的过去中位时间
func templateTime(now, median time.Time) time.Time {
	ts := time.Unix(now.Unix(), 0)
	if !ts.After(median) {
		ts = time.Unix(median.Unix()+1, 0)
	}
	return ts
}

var _ interfaces.BlockSource = (*Source)(nil)
