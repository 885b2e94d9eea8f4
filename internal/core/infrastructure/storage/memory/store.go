// Package memory 基于 BigCache 的内存缓存
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/pbnjay/memory"

	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/log"
	storage "github.com/weisyn/powminer/pkg/interfaces/infrastructure/storage"
)

// ErrStoreClosed 缓存已关闭
var ErrStoreClosed = errors.New("内存存储已关闭")

const (
	defaultLifeWindow = 10 * time.Minute

	// 缓存上限取物理内存的 1/16，且不超过 maxCacheMB
	maxCacheMB        = 512
	systemMemoryShare = 16
)

// hardMaxCacheMB 缓存容量上限(MB)，无法获取物理内存时返回 0（不限）
func hardMaxCacheMB(totalBytes uint64) int {
	if totalBytes == 0 {
		return 0
	}
	mb := int(totalBytes / systemMemoryShare / (1 << 20))
	if mb < 1 {
		mb = 1
	}
	if mb > maxCacheMB {
		mb = maxCacheMB
	}
	return mb
}

// Store 实现 storage.MemoryStore
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger

	mu     sync.RWMutex
	closed bool
}

// New 创建内存缓存，lifeWindow 非正值时使用 10 分钟
func New(lifeWindow time.Duration, logger log.Logger) (*Store, error) {
	if lifeWindow <= 0 {
		lifeWindow = defaultLifeWindow
	}

	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10000
	// 仅为初始分配提示，更大的区块照常写入
	cfg.MaxEntrySize = 1024
	cfg.CleanWindow = lifeWindow / 2
	cfg.HardMaxCacheSize = hardMaxCacheMB(memory.TotalMemory())
	cfg.StatsEnabled = false
	cfg.Verbose = false

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("创建BigCache实例失败: %w", err)
	}
	return &Store{cache: cache, logger: logger}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}

	value, err := s.cache.Get(key)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, bigcache.ErrEntryNotFound):
		return nil, false, nil
	default:
		if s.logger != nil {
			s.logger.Warnf("读取缓存失败: key=%s err=%v", key, err)
		}
		return nil, false, err
	}
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.cache.Set(key, value)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	return int64(s.cache.Len()), nil
}

// Stats 命中、未命中、冲突等累计统计，关闭后返回零值
func (s *Store) Stats() bigcache.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return bigcache.Stats{}
	}
	return s.cache.Stats()
}

// Close 关闭缓存，重复调用为空操作
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.cache.Close(); err != nil {
		return err
	}
	s.closed = true
	return nil
}

var _ storage.MemoryStore = (*Store)(nil)
