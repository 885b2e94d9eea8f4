// Package clock 定义统一的时间源接口
package clock

import "time"

// Clock 提供统一的时间源接口（基础设施层接口）
//
// 挖矿作业的开始时间、区块头时间戳与算力统计都从该接口取时间，
// 测试中可替换为可控的 Mock 实现。
type Clock interface {
	// Now 获取当前时间
	Now() time.Time

	// Since 计算从指定时间到现在的持续时间
	Since(t time.Time) time.Duration

	// Unix 获取当前Unix时间戳（秒）
	Unix() int64
}
