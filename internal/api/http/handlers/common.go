// Package handlers 实现挖矿控制接口的HTTP处理器
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/weisyn/powminer/internal/api/http/middleware"
)

// StandardAPIResponse 标准API响应格式
type StandardAPIResponse struct {
	Success bool        `json:"success"`           // 操作是否成功
	Data    interface{} `json:"data,omitempty"`    // 响应数据（成功时）
	Message string      `json:"message,omitempty"` // 成功消息或简要说明
	Error   *APIError   `json:"error,omitempty"`   // 错误信息（失败时）
}

// APIError 标准错误结构
type APIError struct {
	Code    string `json:"code"`              // 错误代码（用于程序化处理）
	Message string `json:"message"`           // 用户友好的错误消息
	Details string `json:"details,omitempty"` // 详细错误信息（调试用）
}

// 请求相关错误
const (
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeInvalidParameter = "INVALID_PARAMETER"
	ErrorCodeInvalidAddress   = "INVALID_ADDRESS"
	ErrorCodeInvalidHeight    = "INVALID_HEIGHT"
)

// 业务逻辑相关错误
const (
	ErrorCodeBlockNotFound     = "BLOCK_NOT_FOUND"
	ErrorCodeTransactionReject = "TRANSACTION_REJECTED"
)

// 系统相关错误
const (
	ErrorCodeInternalError      = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// 挖矿相关错误
const (
	ErrorCodeMiningAlreadyRunning  = "MINING_ALREADY_RUNNING"
	ErrorCodeMiningAlreadyStopping = "MINING_ALREADY_STOPPING"
	ErrorCodeMiningFailed          = "MINING_FAILED"
)

func respondOK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, StandardAPIResponse{Success: true, Data: data, Message: message})
}

func respondError(c *gin.Context, status int, code, message string, err error) {
	c.Set(middleware.ContextKeyErrorCode, code)
	apiErr := &APIError{Code: code, Message: message}
	if err != nil {
		apiErr.Details = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, StandardAPIResponse{Success: false, Error: apiErr})
}
