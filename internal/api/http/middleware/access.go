// Package middleware 控制接口的 gin 中间件
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// HeaderRequestID 请求ID头，调用方提供时沿用
	HeaderRequestID = "X-Request-ID"

	// ContextKeyErrorCode 处理器写入的业务错误码
	ContextKeyErrorCode = "api_error_code"

	contextKeyRequestID = "request_id"
)

// RequestID 为每个请求分配追踪ID并回写响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 当前请求的追踪ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

// AccessLog 请求结束后记录一条访问日志
//
// 5xx 记 Error，4xx 记 Warn 并带上业务错误码，其余记 Debug。
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if code := c.GetString(ContextKeyErrorCode); code != "" {
			fields = append(fields, zap.String("code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("控制接口请求失败", fields...)
		case status >= 400:
			logger.Warn("控制接口请求被拒绝", fields...)
		default:
			logger.Debug("控制接口请求", fields...)
		}
	}
}
