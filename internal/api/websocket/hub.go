// Package websocket 通过 WebSocket 推送挖矿与链事件
//
// 客户端以 JSON-RPC 2.0 的 powminer_subscribe / powminer_unsubscribe 管理订阅，
// 事件以 powminer_subscription 通知推送。
package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weisyn/powminer/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/powminer/pkg/types"
)

// 订阅主题
const (
	TopicNewHeads      = "newHeads"
	TopicBlockFound    = "blockFound"
	TopicMiningStatus  = "miningStatus"
	TopicMinerState    = "minerState"
	TopicMinerError    = "minerError"
	TopicNewPendingTxs = "newPendingTxs"
)

// topicEvents 主题与事件总线事件的对应关系
var topicEvents = map[string]types.EventType{
	TopicNewHeads:      types.EventTypeTipChanged,
	TopicBlockFound:    types.EventTypeBlockFound,
	TopicMiningStatus:  types.EventTypeMiningStatus,
	TopicMinerState:    types.EventTypeMinerStateChanged,
	TopicMinerError:    types.EventTypeMinerError,
	TopicNewPendingTxs: types.EventTypeMempoolEntry,
}

// Hub 事件分发中心
//
// 每种事件只向总线注册一个处理器，再按订阅扇出到各连接。
// 推送经由每个连接的发送队列，队列满时丢弃，不阻塞发布方。
type Hub struct {
	logger   *zap.Logger
	eventBus event.EventBus

	lifeMu sync.Mutex // 串行化 Start/Stop

	mu         sync.RWMutex
	clients    map[*client]struct{}
	registered bool
}

// NewHub 创建事件分发中心
func NewHub(logger *zap.Logger, eventBus event.EventBus) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("websocket")
	return &Hub{
		logger:   logger,
		eventBus: eventBus,
		clients:  make(map[*client]struct{}),
	}
}

// Start 订阅事件总线，重复调用为空操作
//
// 总线同步调用处理器且处理器会获取 mu，因此订阅与取消订阅只在 lifeMu 下进行，
// 不持有 mu。
func (h *Hub) Start() error {
	h.lifeMu.Lock()
	defer h.lifeMu.Unlock()
	if h.eventBus == nil || h.isRegistered() {
		return nil
	}

	subs := h.subscriptions()
	for i, sub := range subs {
		if err := h.eventBus.Subscribe(sub.eventType, sub.handler); err != nil {
			for _, done := range subs[:i] {
				_ = h.eventBus.Unsubscribe(done.eventType, done.handler)
			}
			return fmt.Errorf("订阅事件 %s 失败: %w", sub.eventType, err)
		}
	}

	h.mu.Lock()
	h.registered = true
	h.mu.Unlock()
	return nil
}

// Stop 取消总线订阅并关闭全部连接
func (h *Hub) Stop() {
	h.lifeMu.Lock()
	defer h.lifeMu.Unlock()

	h.mu.Lock()
	wasRegistered := h.registered
	h.registered = false
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	if wasRegistered && h.eventBus != nil {
		for _, sub := range h.subscriptions() {
			_ = h.eventBus.Unsubscribe(sub.eventType, sub.handler)
		}
	}

	for c := range clients {
		c.close()
	}
}

type hubSubscription struct {
	eventType types.EventType
	handler   interface{}
}

// subscriptions 总线订阅表，Start 与 Stop 共用同一组方法值
func (h *Hub) subscriptions() []hubSubscription {
	return []hubSubscription{
		{types.EventTypeTipChanged, h.onTipChanged},
		{types.EventTypeBlockFound, h.onBlockFound},
		{types.EventTypeMiningStatus, h.onMiningStatus},
		{types.EventTypeMinerStateChanged, h.onMinerState},
		{types.EventTypeMinerError, h.onMinerError},
		{types.EventTypeMempoolEntry, h.onMempoolEntry},
	}
}

func (h *Hub) isRegistered() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registered
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// subscribe 为连接创建订阅，返回订阅ID
func (h *Hub) subscribe(c *client, topic string) (string, error) {
	if _, ok := topicEvents[topic]; !ok {
		return "", fmt.Errorf("未知订阅类型: %s", topic)
	}
	id := "0x" + uuid.New().String()[:8]
	c.addSubscription(id, topic)
	return id, nil
}

// broadcast 向订阅了 topic 的连接推送通知
func (h *Hub) broadcast(topic string, result interface{}) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		for _, id := range c.subscriptionsFor(topic) {
			data, err := json.Marshal(notification{
				JSONRPC: "2.0",
				Method:  "powminer_subscription",
				Params:  notificationParams{Subscription: id, Result: result},
			})
			if err != nil {
				h.logger.Error("序列化通知失败", zap.String("topic", topic), zap.Error(err))
				return
			}
			if !c.enqueue(data) {
				h.logger.Warn("发送队列已满，丢弃通知",
					zap.String("topic", topic),
					zap.String("subscription", id),
					zap.String("remote_addr", c.remoteAddr))
			}
		}
	}
}

// ==================== 事件处理器 ====================

func (h *Hub) onTipChanged(data *types.TipChangedEventData) {
	if data == nil || data.Tip == nil {
		return
	}
	head := headResult{
		Hash:      data.Tip.Hash.String(),
		PrevHash:  data.Tip.PrevHash.String(),
		Height:    data.Tip.Height,
		Bits:      fmt.Sprintf("%08x", data.Tip.Bits),
		Timestamp: data.Tip.Timestamp.Unix(),
	}
	if data.Block != nil {
		head.TxCount = len(data.Block.Transactions())
	}
	h.broadcast(TopicNewHeads, head)
}

func (h *Hub) onBlockFound(data *types.BlockFoundEventData) {
	if data == nil || data.Entry == nil {
		return
	}
	result := blockFoundResult{
		JobID:  data.JobID,
		Hash:   data.Entry.Hash.String(),
		Height: data.Entry.Height,
	}
	if data.Block != nil {
		result.TxCount = len(data.Block.Transactions())
	}
	h.broadcast(TopicBlockFound, result)
}

func (h *Hub) onMiningStatus(data *types.MiningStatusEventData) {
	if data == nil {
		return
	}
	h.broadcast(TopicMiningStatus, miningStatusResult{
		JobID:      data.JobID,
		Height:     data.Height,
		Bits:       fmt.Sprintf("%08x", data.Bits),
		Iterations: data.Iterations,
		HashCount:  data.HashCount,
		HashRate:   data.HashRate,
		Timestamp:  data.Timestamp.Unix(),
	})
}

func (h *Hub) onMinerState(data *types.MinerStateChangedEventData) {
	if data == nil {
		return
	}
	h.broadcast(TopicMinerState, minerStateResult{
		OldState: data.OldState.String(),
		NewState: data.NewState.String(),
		Message:  data.Message,
	})
}

func (h *Hub) onMinerError(data *types.MinerErrorEventData) {
	if data == nil {
		return
	}
	msg := ""
	if data.Err != nil {
		msg = data.Err.Error()
	}
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	h.broadcast(TopicMinerError, minerErrorResult{Error: msg, Timestamp: ts.Unix()})
}

func (h *Hub) onMempoolEntry(data *types.MempoolEntryEventData) {
	if data == nil || data.Tx == nil {
		return
	}
	h.broadcast(TopicNewPendingTxs, data.Tx.Hash().String())
}
