package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server WebSocket 事件推送端点
type Server struct {
	logger   *zap.Logger
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer 创建 WebSocket 服务器
func NewServer(logger *zap.Logger, hub *Hub) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("websocket")
	return &Server{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			// 控制接口默认只监听本机
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册路由
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", s.HandleWebSocket)
}

// HandleWebSocket 处理 WebSocket 连接
func (s *Server) HandleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("升级WebSocket连接失败", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	cl := newClient(conn)
	s.hub.add(cl)
	go cl.writeLoop()

	s.logger.Info("WebSocket连接已建立", zap.String("remote_addr", cl.remoteAddr))
	defer func() {
		s.hub.remove(cl)
		cl.close()
		s.logger.Info("WebSocket连接已关闭", zap.String("remote_addr", cl.remoteAddr))
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket连接异常关闭", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.handleMessage(cl, message)
	}
}

func (s *Server) handleMessage(cl *client, message []byte) {
	var req request
	if err := json.Unmarshal(message, &req); err != nil {
		s.replyError(cl, nil, codeParseError, "Parse error", "")
		return
	}

	var params []string
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.replyError(cl, req.ID, codeInvalidParams, "Invalid params", "")
			return
		}
	}
	if len(params) == 0 && (req.Method == "powminer_subscribe" || req.Method == "powminer_unsubscribe") {
		s.replyError(cl, req.ID, codeInvalidParams, "Missing params", "")
		return
	}

	switch req.Method {
	case "powminer_subscribe":
		id, err := s.hub.subscribe(cl, params[0])
		if err != nil {
			s.replyError(cl, req.ID, codeServerError, "Failed to subscribe", err.Error())
			return
		}
		s.logger.Debug("订阅已创建", zap.String("id", id), zap.String("topic", params[0]))
		s.reply(cl, response{ID: req.ID, Result: id})
	case "powminer_unsubscribe":
		s.reply(cl, response{ID: req.ID, Result: cl.removeSubscription(params[0])})
	default:
		s.replyError(cl, req.ID, codeMethodNotFound, "Method not found", "")
	}
}

func (s *Server) reply(cl *client, resp response) {
	resp.JSONRPC = "2.0"
	s.send(cl, resp)
}

func (s *Server) replyError(cl *client, id interface{}, code int, message, detail string) {
	s.send(cl, errorResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: detail},
	})
}

func (s *Server) send(cl *client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("序列化响应失败", zap.Error(err))
		return
	}
	if !cl.enqueue(data) {
		s.logger.Warn("发送队列已满，丢弃响应", zap.String("remote_addr", cl.remoteAddr))
	}
}
