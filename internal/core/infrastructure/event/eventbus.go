// Package event 基于 asaskevich/EventBus 的事件总线
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	eventconfig "github.com/weisyn/powminer/internal/config/event"
	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
)

// EventBus 在底层总线之上增加：
// - 按配置整体启停（未启用时所有调用静默成功）
// - 单个事件类型的订阅者上限
// - 按事件类型的发布计数
type EventBus struct {
	bus    evbus.Bus
	config *eventconfig.Config

	running atomic.Bool

	mu          sync.Mutex
	subscribers map[event.EventType]int
	published   map[event.EventType]uint64
}

// New 创建事件总线
func New(config *eventconfig.Config) *EventBus {
	if config == nil {
		config = eventconfig.New(nil)
	}
	return &EventBus{
		bus:         evbus.New(),
		config:      config,
		subscribers: make(map[event.EventType]int),
		published:   make(map[event.EventType]uint64),
	}
}

// Subscribe 同步订阅，超过订阅者上限时返回错误
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}

	eb.mu.Lock()
	if max := eb.config.GetMaxSubscribers(); max > 0 && eb.subscribers[eventType] >= max {
		eb.mu.Unlock()
		return fmt.Errorf("事件 %s 订阅者已达上限 %d", eventType, max)
	}
	eb.subscribers[eventType]++
	eb.mu.Unlock()

	if err := eb.bus.Subscribe(string(eventType), handler); err != nil {
		eb.mu.Lock()
		eb.subscribers[eventType]--
		eb.mu.Unlock()
		return err
	}
	return nil
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	if err := eb.bus.Unsubscribe(string(eventType), handler); err != nil {
		return err
	}

	eb.mu.Lock()
	if eb.subscribers[eventType] > 0 {
		eb.subscribers[eventType]--
	}
	eb.mu.Unlock()
	return nil
}

// Publish 同步发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if !eb.config.IsEnabled() {
		return
	}
	eb.mu.Lock()
	eb.published[eventType]++
	eb.mu.Unlock()

	eb.bus.Publish(string(eventType), args...)
}

// HasCallback 是否存在订阅者
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	if !eb.config.IsEnabled() {
		return false
	}
	return eb.bus.HasCallback(string(eventType))
}

// PublishedCount 指定事件类型的发布次数
func (eb *EventBus) PublishedCount(eventType event.EventType) uint64 {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return eb.published[eventType]
}

// PublishedTotal 全部事件的发布次数
func (eb *EventBus) PublishedTotal() uint64 {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	var total uint64
	for _, n := range eb.published {
		total += n
	}
	return total
}

func (eb *EventBus) Start(ctx context.Context) error {
	if !eb.running.CompareAndSwap(false, true) {
		return fmt.Errorf("事件总线已在运行")
	}
	return nil
}

func (eb *EventBus) Stop(ctx context.Context) error {
	if !eb.running.CompareAndSwap(true, false) {
		return fmt.Errorf("事件总线未运行")
	}
	return nil
}

func (eb *EventBus) IsRunning() bool { return eb.running.Load() }

var _ event.EventBus = (*EventBus)(nil)
