package job

import "github.com/weisyn/powminer/pkg/types"

// 作业契约错误，均包装 types.ErrContractViolation
var (
	ErrJobAlreadyCommitted = types.ErrJobAlreadyCommitted
	ErrJobAlreadyDestroyed = types.ErrJobAlreadyDestroyed
	ErrCommitDestroyedJob  = types.ErrCommitDestroyedJob
	ErrDestroyCommittedJob = types.ErrDestroyCommittedJob
)
