package txpool

import "errors"

// 错误定义
var (
	ErrTxAlreadyExists    = errors.New("交易已存在于交易池")
	ErrTxPoolFull         = errors.New("交易池已满")
	ErrTxPoolClosed       = errors.New("交易池已关闭")
	ErrInvalidTransaction = errors.New("无效交易")
	ErrCoinbaseTx         = errors.New("交易池不接受币基交易")
	ErrMissingInputs      = errors.New("缺少交易输入")
	ErrDuplicateUTXOSpend = errors.New("UTXO重复花费")
)
