package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/powminer/internal/app/version"
	chainif "github.com/weisyn/powminer/pkg/interfaces/chain"
	"github.com/weisyn/powminer/pkg/interfaces/consensus"
	"github.com/weisyn/powminer/pkg/interfaces/mempool"
	"github.com/weisyn/powminer/pkg/types"
)

// HealthHandler 健康检查端点处理器
type HealthHandler struct {
	startTime    time.Time
	chain        chainif.ChainReader
	txPool       mempool.TxPool
	minerService consensus.MinerService
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Components map[string]interface{} `json:"components"`
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(chain chainif.ChainReader, txPool mempool.TxPool, minerService consensus.MinerService) *HealthHandler {
	return &HealthHandler{
		startTime:    time.Now(),
		chain:        chain,
		txPool:       txPool,
		minerService: minerService,
	}
}

// Health 返回各组件状态，矿工处于 Error 状态时整体为 degraded
func (h *HealthHandler) Health(c *gin.Context) {
	status := "healthy"
	components := make(map[string]interface{})

	if h.chain != nil {
		tip := h.chain.Tip()
		components["chain"] = gin.H{"height": tip.Height, "tip": tip.Hash.String()}
	}
	if h.txPool != nil {
		components["txpool"] = gin.H{"count": h.txPool.Count()}
	}
	if h.minerService != nil {
		miningStatus, err := h.minerService.GetMiningStatus(c.Request.Context())
		if err != nil {
			status = "degraded"
			components["miner"] = gin.H{"error": err.Error()}
		} else {
			components["miner"] = gin.H{"state": miningStatus.State, "running": miningStatus.Running}
			if miningStatus.State == types.MinerStateError.String() {
				status = "degraded"
			}
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:     status,
		Version:    version.Version,
		Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
		Components: components,
	})
}
