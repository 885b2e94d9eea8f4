package handlers

import (
	"bytes"
	"encoding/hex"
	"net/http"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/gin-gonic/gin"

	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/interfaces/mempool"
)

// TxPoolHandlers 交易池处理器
type TxPoolHandlers struct {
	txPool mempool.TxPool
	logger log.Logger
}

// SubmitTxRequest 提交交易请求
type SubmitTxRequest struct {
	RawTx string `json:"raw_tx" binding:"required"` // 十六进制编码的序列化交易
}

// SubmitTxResponse 提交交易响应
type SubmitTxResponse struct {
	TxID string `json:"txid"`
	Fee  int64  `json:"fee"`
}

// NewTxPoolHandlers 创建交易池处理器
func NewTxPoolHandlers(txPool mempool.TxPool, logger log.Logger) *TxPoolHandlers {
	return &TxPoolHandlers{txPool: txPool, logger: logger}
}

// RegisterRoutes 注册交易池路由
func (h *TxPoolHandlers) RegisterRoutes(r *gin.RouterGroup) {
	txpool := r.Group("/txpool")
	txpool.POST("/submit", h.SubmitTransaction)
	txpool.GET("/status", h.GetStatus)
}

// SubmitTransaction 解码并提交原始交易
func (h *TxPoolHandlers) SubmitTransaction(c *gin.Context) {
	var req SubmitTxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "请求体格式错误", err)
		return
	}

	raw, err := hex.DecodeString(req.RawTx)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidParameter, "raw_tx 不是有效的十六进制", err)
		return
	}
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(raw)); err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidParameter, "交易反序列化失败", err)
		return
	}

	desc, err := h.txPool.SubmitTx(btcutil.NewTx(&msgTx))
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, ErrorCodeTransactionReject, "交易被拒绝", err)
		return
	}

	respondOK(c, http.StatusOK, SubmitTxResponse{TxID: desc.Tx.Hash().String(), Fee: desc.Fee}, "交易已接纳")
}

// GetStatus 查询交易池状态
func (h *TxPoolHandlers) GetStatus(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"count": h.txPool.Count()}, "")
}
