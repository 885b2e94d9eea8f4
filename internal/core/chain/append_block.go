package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/pkg/types"
)

// Append 追加区块
//
// 校验顺序：重复 → 父区块存在 → 父区块为链尖 → 难度 → 时间戳（晚于父区块的过去中位时间） →
// 区块结构与工作量 → 币基高度 → 交易输入与币基金额。
func (s *Service) Append(ctx context.Context, block *btcutil.Block) (*types.ChainEntry, error) {
	if block == nil {
		return nil, types.NewValidationError("nil-block", nil)
	}
	hdr := block.MsgBlock().Header
	hash := *block.Hash()

	s.mu.Lock()

	if _, ok := s.entries[hash]; ok {
		s.mu.Unlock()
		return nil, types.NewValidationError("duplicate", fmt.Errorf("区块 %s 已存在", hash))
	}

	parent, ok := s.entries[hdr.PrevBlock]
	if !ok {
		s.mu.Unlock()
		return nil, types.NewValidationError("prev-blk-not-found", fmt.Errorf("父区块 %s 未知", hdr.PrevBlock))
	}

	tip := s.byHeight[len(s.byHeight)-1]
	if parent.Hash != tip.Hash {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warnf("父区块已不是链尖，拒绝区块: hash=%s parent=%s tip=%s", hash, parent.Hash, tip.Hash)
		}
		return nil, nil
	}

	if hdr.Bits != parent.Bits {
		s.mu.Unlock()
		return nil, types.NewValidationError("bad-diffbits",
			fmt.Errorf("难度 %08x 与父区块 %08x 不一致", hdr.Bits, parent.Bits))
	}

	if !hdr.Timestamp.After(parent.MedianTime) {
		s.mu.Unlock()
		return nil, types.NewValidationError("time-too-old",
			fmt.Errorf("时间戳 %s 不晚于过去中位时间 %s", hdr.Timestamp, parent.MedianTime))
	}

	if err := blockchain.CheckBlockSanity(block, s.params.PowLimit, s.timeSource); err != nil {
		s.mu.Unlock()
		return nil, toValidationError(err)
	}

	height := parent.Height + 1
	block.SetHeight(int32(height))

	coinbase := block.Transactions()[0]
	cbHeight, err := blockchain.ExtractCoinbaseHeight(coinbase)
	if err != nil {
		s.mu.Unlock()
		return nil, toValidationError(err)
	}
	if uint32(cbHeight) != height {
		s.mu.Unlock()
		return nil, types.NewValidationError("bad-cb-height",
			fmt.Errorf("币基高度 %d 与区块高度 %d 不一致", cbHeight, height))
	}

	view, err := s.connectTransactions(block, height)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.commitView(view)
	entry := newEntry(block, height, s.pastMedianTime(hdr.Timestamp))
	s.entries[entry.Hash] = entry
	s.byHeight = append(s.byHeight, entry)
	s.mu.Unlock()

	if err := s.cacheBlock(ctx, block); err != nil && s.logger != nil {
		s.logger.Warnf("缓存区块失败: hash=%s err=%v", hash, err)
	}

	if s.logger != nil {
		s.logger.Infof("区块已上链: height=%d hash=%s txs=%d", height, hash, len(block.Transactions()))
	}
	if s.eventBus != nil {
		s.eventBus.Publish(types.EventTypeTipChanged, &types.TipChangedEventData{Tip: entry, Block: block})
	}
	return entry, nil
}

// connectTransactions 在临时视图上连接区块交易，调用方需持有写锁
func (s *Service) connectTransactions(block *btcutil.Block, height uint32) (*blockchain.UtxoViewpoint, error) {
	view := blockchain.NewUtxoViewpoint()
	var fees int64

	for i, tx := range block.Transactions() {
		if i == 0 {
			continue
		}
		for _, txIn := range tx.MsgTx().TxIn {
			if view.LookupEntry(txIn.PreviousOutPoint) != nil {
				continue
			}
			if entry := s.utxos.LookupEntry(txIn.PreviousOutPoint); entry != nil {
				view.Entries()[txIn.PreviousOutPoint] = entry.Clone()
			}
		}

		fee, err := blockchain.CheckTransactionInputs(tx, int32(height), view, s.params)
		if err != nil {
			return nil, toValidationError(err)
		}
		fees += fee

		for _, txIn := range tx.MsgTx().TxIn {
			view.LookupEntry(txIn.PreviousOutPoint).Spend()
		}
		view.AddTxOuts(tx, int32(height))
	}

	coinbase := block.Transactions()[0]
	var claimed int64
	for _, out := range coinbase.MsgTx().TxOut {
		claimed += out.Value
	}
	allowed := blockchain.CalcBlockSubsidy(int32(height), s.params) + fees
	if claimed > allowed {
		return nil, types.NewValidationError("bad-cb-amount",
			fmt.Errorf("币基金额 %d 超过允许值 %d", claimed, allowed))
	}
	view.AddTxOuts(coinbase, int32(height))

	return view, nil
}

// commitView 将临时视图写回 UTXO 集合，调用方需持有写锁
func (s *Service) commitView(view *blockchain.UtxoViewpoint) {
	main := s.utxos.Entries()
	for outpoint, entry := range view.Entries() {
		if entry == nil || entry.IsSpent() {
			delete(main, outpoint)
			continue
		}
		main[outpoint] = entry
	}
}

// toValidationError 将共识规则错误转换为校验错误
func toValidationError(err error) error {
	var ruleErr blockchain.RuleError
	if errors.As(err, &ruleErr) {
		return types.NewValidationError(ruleErr.ErrorCode.String(), err)
	}
	return types.NewValidationError("invalid", err)
}
