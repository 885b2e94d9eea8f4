// mining.go - 挖矿控制处理器
//
// 职责：处理挖矿相关的HTTP请求：
// - 启动挖矿：可选地指定奖励地址
// - 停止挖矿：等待挖矿循环退出后返回
// - 挖矿状态：查询当前状态与算力统计
package handlers

import (
	"errors"
	"net/http"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gin-gonic/gin"

	"github.com/weisyn/powminer/pkg/interfaces/consensus"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/powminer/pkg/types"
)

// MiningHandlers 挖矿控制处理器
type MiningHandlers struct {
	minerService consensus.MinerService
	params       *chaincfg.Params
	logger       log.Logger
}

// StartMiningRequest 启动挖矿请求
type StartMiningRequest struct {
	MinerAddress string `json:"miner_address"` // 为空时使用配置地址
}

// NewMiningHandlers 创建挖矿处理器实例
func NewMiningHandlers(minerService consensus.MinerService, params *chaincfg.Params, logger log.Logger) *MiningHandlers {
	return &MiningHandlers{
		minerService: minerService,
		params:       params,
		logger:       logger,
	}
}

// RegisterRoutes 注册挖矿路由
func (h *MiningHandlers) RegisterRoutes(r *gin.RouterGroup) {
	mining := r.Group("/mining")
	mining.POST("/start", h.StartMining)
	mining.POST("/stop", h.StopMining)
	mining.GET("/status", h.GetMiningStatus)
}

// StartMining 启动挖矿
func (h *MiningHandlers) StartMining(c *gin.Context) {
	var req StartMiningRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "请求体格式错误", err)
			return
		}
	}

	var address btcutil.Address
	if req.MinerAddress != "" {
		decoded, err := btcutil.DecodeAddress(req.MinerAddress, h.params)
		if err != nil || !decoded.IsForNet(h.params) {
			if err == nil {
				err = errors.New("地址不属于当前网络")
			}
			respondError(c, http.StatusBadRequest, ErrorCodeInvalidAddress, "矿工地址无效", err)
			return
		}
		address = decoded
	}

	if err := h.minerService.StartMining(c.Request.Context(), address); err != nil {
		if errors.Is(err, types.ErrMinerAlreadyRunning) {
			respondError(c, http.StatusConflict, ErrorCodeMiningAlreadyRunning, "挖矿已在运行", err)
			return
		}
		h.logger.Errorf("启动挖矿失败: %v", err)
		respondError(c, http.StatusInternalServerError, ErrorCodeMiningFailed, "启动挖矿失败", err)
		return
	}

	h.logger.Infof("已通过控制接口启动挖矿: address=%s", req.MinerAddress)
	respondOK(c, http.StatusOK, nil, "挖矿已启动")
}

// StopMining 停止挖矿
func (h *MiningHandlers) StopMining(c *gin.Context) {
	if err := h.minerService.StopMining(c.Request.Context()); err != nil {
		if errors.Is(err, types.ErrContractViolation) {
			respondError(c, http.StatusConflict, ErrorCodeMiningAlreadyStopping, "挖矿正在停止", err)
			return
		}
		h.logger.Errorf("停止挖矿失败: %v", err)
		respondError(c, http.StatusInternalServerError, ErrorCodeMiningFailed, "停止挖矿失败", err)
		return
	}
	respondOK(c, http.StatusOK, nil, "挖矿已停止")
}

// GetMiningStatus 查询挖矿状态
func (h *MiningHandlers) GetMiningStatus(c *gin.Context) {
	status, err := h.minerService.GetMiningStatus(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, ErrorCodeInternalError, "获取挖矿状态失败", err)
		return
	}
	respondOK(c, http.StatusOK, status, "")
}
