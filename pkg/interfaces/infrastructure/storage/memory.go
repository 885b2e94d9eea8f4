// Package storage 定义存储接口
package storage

import "context"

// MemoryStore 带过期窗口的内存键值缓存
//
// 条目的生存时间由实现的全局生命周期窗口决定，过期条目会被自动清理。
type MemoryStore interface {
	// Get 获取缓存值，键不存在时 exists 为 false 且 err 为 nil
	Get(ctx context.Context, key string) (value []byte, exists bool, err error)

	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除条目，键不存在时不返回错误
	Delete(ctx context.Context, key string) error

	// Count 当前条目数
	Count(ctx context.Context) (int64, error)

	Close() error
}
