package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// BlockHandlers 区块查询处理器
type BlockHandlers struct {
	chain  chainif.ChainReader
	logger log.Logger
}

// BlockEntryResponse 链上条目
type BlockEntryResponse struct {
	Hash      string `json:"hash"`
	PrevHash  string `json:"prev_hash"`
	Height    uint32 `json:"height"`
	Bits      string `json:"bits"`
	Timestamp int64  `json:"timestamp"`
	TxCount   int    `json:"tx_count,omitempty"`
}

// NewBlockHandlers 创建区块查询处理器
func NewBlockHandlers(chain chainif.ChainReader, logger log.Logger) *BlockHandlers {
	return &BlockHandlers{chain: chain, logger: logger}
}

// RegisterRoutes 注册区块路由
func (h *BlockHandlers) RegisterRoutes(r *gin.RouterGroup) {
	blocks := r.Group("/blocks")
	blocks.GET("/tip", h.GetTip)
	blocks.GET("/height/:height", h.GetBlockByHeight)
}

// GetTip 查询链尖
func (h *BlockHandlers) GetTip(c *gin.Context) {
	h.respondEntry(c, h.chain.Tip())
}

// GetBlockByHeight 按高度查询
func (h *BlockHandlers) GetBlockByHeight(c *gin.Context) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidHeight, "高度参数无效", err)
		return
	}
	entry, ok := h.chain.EntryByHeight(uint32(height))
	if !ok {
		respondError(c, http.StatusNotFound, ErrorCodeBlockNotFound, "区块不存在", nil)
		return
	}
	h.respondEntry(c, entry)
}

func (h *BlockHandlers) respondEntry(c *gin.Context, entry *types.ChainEntry) {
	resp := BlockEntryResponse{
		Hash:      entry.Hash.String(),
		PrevHash:  entry.PrevHash.String(),
		Height:    entry.Height,
		Bits:      strconv.FormatUint(uint64(entry.Bits), 16),
		Timestamp: entry.Timestamp.Unix(),
	}
	// 区块体可能已被缓存淘汰，此时只返回条目
	if block, err := h.chain.Block(c.Request.Context(), entry.Hash); err == nil {
		resp.TxCount = len(block.Transactions())
	}
	respondOK(c, http.StatusOK, resp, "")
}
