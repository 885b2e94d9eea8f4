// Package types 定义共识相关的错误类型
package types

import (
	"errors"
	"fmt"
)

// ErrContractViolation 契约违规
//
// 表示调用方违反了 API 的使用约定（编程错误），而不是可恢复的运行时条件。
// 所有具体的契约违规错误都包装该错误，可用 errors.Is 统一判定。
var ErrContractViolation = errors.New("contract violation")

var (
	// ErrMinerAlreadyRunning 矿工已在运行时再次启动
	ErrMinerAlreadyRunning = fmt.Errorf("%w: miner is already running", ErrContractViolation)
	// ErrMinerAlreadyStopping 矿工已在停止过程中再次停止
	ErrMinerAlreadyStopping = fmt.Errorf("%w: miner is already stopping", ErrContractViolation)
	// ErrStopSignalRegistered 停止信号已被注册（只允许一个等待者）
	ErrStopSignalRegistered = fmt.Errorf("%w: stop signal already registered", ErrContractViolation)
	// ErrJobAlreadyCommitted 作业重复提交
	ErrJobAlreadyCommitted = fmt.Errorf("%w: job already committed", ErrContractViolation)
	// ErrJobAlreadyDestroyed 作业重复销毁
	ErrJobAlreadyDestroyed = fmt.Errorf("%w: job already destroyed", ErrContractViolation)
	// ErrCommitDestroyedJob 提交已销毁的作业
	ErrCommitDestroyedJob = fmt.Errorf("%w: cannot commit a destroyed job", ErrContractViolation)
	// ErrDestroyCommittedJob 销毁已提交的作业
	ErrDestroyCommittedJob = fmt.Errorf("%w: cannot destroy a committed job", ErrContractViolation)
)

// ValidationError 区块校验失败
//
// 由 ChainSink 在区块结构或工作量无效时返回。
// 对挖矿循环而言是可恢复错误：记录日志后以新作业继续。
type ValidationError struct {
	Reason string // 拒绝原因（简短标识）
	Err    error  // 底层校验错误
}

// NewValidationError 创建校验错误
func NewValidationError(reason string, err error) *ValidationError {
	return &ValidationError{Reason: reason, Err: err}
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("block validation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("block validation failed (%s)", e.Reason)
}

// Unwrap 返回底层错误
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError 检查错误链中是否包含校验错误
func IsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
