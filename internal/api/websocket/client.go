package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendQueueSize  = 64
	maxMessageSize = 4096
)

// client 单个 WebSocket 连接
//
// 所有写操作都在 writeLoop 中进行，gorilla/websocket 不支持并发写。
type client struct {
	conn       *websocket.Conn
	remoteAddr string
	send       chan []byte

	mu     sync.RWMutex
	subs   map[string]string // 订阅ID -> 主题
	closed bool
	done   chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		send:       make(chan []byte, sendQueueSize),
		subs:       make(map[string]string),
		done:       make(chan struct{}),
	}
}

func (c *client) addSubscription(id, topic string) {
	c.mu.Lock()
	c.subs[id] = topic
	c.mu.Unlock()
}

// removeSubscription 返回订阅是否存在
func (c *client) removeSubscription(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[id]; !ok {
		return false
	}
	delete(c.subs, id)
	return true
}

func (c *client) subscriptionsFor(topic string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []string
	for id, t := range c.subs {
		if t == topic {
			ids = append(ids, id)
		}
	}
	return ids
}

// enqueue 非阻塞入队，队列满或连接已关闭时返回 false
func (c *client) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close 幂等关闭，writeLoop 退出后连接随之关闭
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
