package clock

import (
	"sync"
	"time"

	"github.com/beevik/ntp"

	infraClock "github.com/weisyn/powminer/pkg/interfaces/infrastructure/clock"
)

const (
	ntpBackoffInitial = 5 * time.Second
	ntpBackoffMax     = 5 * time.Minute
)

// queryFn 查询服务器相对本地时间的偏移
type queryFn func(server string) (time.Duration, error)

func queryNTP(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// NTPClock 通过NTP周期性校正偏移的时钟实现
//
// 区块头时间戳取自该时钟，本地时钟漂移过大时出块会被网络拒绝。
type NTPClock struct {
	mu           sync.Mutex
	server       string
	query        queryFn
	offset       time.Duration
	lastSync     time.Time
	syncInterval time.Duration
	backoff      time.Duration
	lastError    error
}

// NewNTPClock 创建NTP时钟
// server 例如 "time.google.com"，syncInterval 建议 5~10 分钟
func NewNTPClock(server string, syncInterval time.Duration) *NTPClock {
	return newNTPClock(server, syncInterval, queryNTP)
}

func newNTPClock(server string, syncInterval time.Duration, query queryFn) *NTPClock {
	c := &NTPClock{server: server, syncInterval: syncInterval, query: query}
	c.mu.Lock()
	// 初始化失败不致命，偏移保持为零，后续按退避重试
	c.syncLocked()
	c.mu.Unlock()
	return c
}

func (c *NTPClock) Now() time.Time {
	c.mu.Lock()
	c.maybeSyncLocked()
	offset := c.offset
	c.mu.Unlock()
	return time.Now().Add(offset)
}

func (c *NTPClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }
func (c *NTPClock) Unix() int64                     { return c.Now().Unix() }

// Health 返回当前健康状态与关键指标
func (c *NTPClock) Health() (healthy bool, offset time.Duration, lastSync time.Time, lastError error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError == nil, c.offset, c.lastSync, c.lastError
}

func (c *NTPClock) maybeSyncLocked() {
	effective := c.syncInterval
	if c.backoff > 0 {
		effective = c.backoff
	}
	if time.Since(c.lastSync) < effective {
		return
	}
	c.syncLocked()
}

func (c *NTPClock) syncLocked() {
	offset, err := c.query(c.server)
	if err != nil {
		c.lastError = err
		// 失败也记录尝试时间，避免每次 Now 都阻塞在网络查询上
		c.lastSync = time.Now()
		if c.backoff == 0 {
			c.backoff = ntpBackoffInitial
		} else if c.backoff < ntpBackoffMax {
			c.backoff *= 2
			if c.backoff > ntpBackoffMax {
				c.backoff = ntpBackoffMax
			}
		}
		return
	}
	c.offset = offset
	c.lastSync = time.Now()
	c.lastError = nil
	c.backoff = 0
}

var _ infraClock.Clock = (*NTPClock)(nil)
