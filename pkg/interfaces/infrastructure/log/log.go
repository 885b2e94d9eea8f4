// Package log 日志接口
//
// 实现位于 internal/core/infrastructure/log（zap + lumberjack）。
package log

import "go.uber.org/zap"

// Logger 日志记录器
//
// 各级别同时提供纯文本与格式化两种形式；With 追加键值对字段。
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})

	With(args ...interface{}) Logger
	Sync() error

	// GetZapLogger 底层 zap 记录器，供需要结构化字段的组件（HTTP、WebSocket）使用
	GetZapLogger() *zap.Logger
}
