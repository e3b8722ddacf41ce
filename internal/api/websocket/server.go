// Package websocket 把事件总线上的状态变更实时推送给前端
package websocket

import (
	"net/http"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/tx"
	"github.com/antigravity/bountyboard/client/core/wallet"
	"github.com/antigravity/bountyboard/internal/cache"
)

const (
	writeTimeout   = 10 * time.Second
	sendBufferSize = 16
)

// Event 推送给客户端的事件
type Event struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// client 单个订阅连接
type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Server 事件推送服务
//
// 订阅进程内事件总线并广播给所有连接；
// 发送缓冲打满的慢客户端直接断开，不阻塞广播
type Server struct {
	bus      evbus.Bus
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

// NewServer 创建事件推送服务
func NewServer(bus evbus.Bus, logger *zap.Logger) *Server {
	return &Server{
		bus:    bus,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 本服务与前端同源部署
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Start 订阅事件总线
func (s *Server) Start() error {
	if err := s.bus.Subscribe(tx.TopicTxStatus, func(snapshot tx.Snapshot) {
		s.broadcast(Event{Topic: tx.TopicTxStatus, Payload: snapshot})
	}); err != nil {
		return err
	}
	if err := s.bus.Subscribe(wallet.TopicWalletStatus, func(session wallet.Session) {
		s.broadcast(Event{Topic: wallet.TopicWalletStatus, Payload: session})
	}); err != nil {
		return err
	}
	return s.bus.Subscribe(cache.TopicBountiesRefreshed, func(count int) {
		s.broadcast(Event{Topic: cache.TopicBountiesRefreshed, Payload: count})
	})
}

// Stop 断开所有连接
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cl := range s.clients {
		close(cl.send)
		_ = cl.conn.Close()
		delete(s.clients, id)
	}
}

// Handle 处理订阅连接
//
// GET /ws
func (s *Server) Handle(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, sendBufferSize),
	}

	s.mu.Lock()
	s.clients[cl.id] = cl
	s.mu.Unlock()
	s.logger.Debug("websocket client connected", zap.String("client", cl.id))

	go s.writeLoop(cl)
	go s.readLoop(cl)
}

// writeLoop 把事件写出到连接
func (s *Server) writeLoop(cl *client) {
	for event := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := cl.conn.WriteJSON(event); err != nil {
			s.logger.Debug("websocket write failed",
				zap.String("client", cl.id),
				zap.Error(err))
			s.drop(cl)
			return
		}
	}
	_ = cl.conn.Close()
}

// readLoop 只消费控制帧，收到关闭即清理
func (s *Server) readLoop(cl *client) {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			s.drop(cl)
			return
		}
	}
}

// broadcast 向所有连接广播事件
func (s *Server) broadcast(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cl := range s.clients {
		select {
		case cl.send <- event:
		default:
			// 缓冲已满，留给writeLoop或readLoop收尾
			s.logger.Debug("websocket client too slow, skipping event",
				zap.String("client", cl.id))
		}
	}
}

// drop 移除连接
func (s *Server) drop(cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[cl.id]; !ok {
		return
	}
	delete(s.clients, cl.id)
	close(cl.send)
	_ = cl.conn.Close()
	s.logger.Debug("websocket client disconnected", zap.String("client", cl.id))
}
