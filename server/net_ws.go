package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"gridarena/room"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	id   room.PlayerID
	ws   *websocket.Conn
	cfg  WSConfig
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClientConn(id room.PlayerID, ws *websocket.Conn, cfg WSConfig) *ClientConn {
	return &ClientConn{
		id:   id,
		ws:   ws,
		cfg:  cfg,
		send: make(chan []byte, cfg.SendBuffer),
	}
}

// ID 连接身份，即玩家 ID
func (c *ClientConn) ID() room.PlayerID { return c.id }

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃），返回是否入队
func (c *ClientConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		// 慢客户端：丢弃，避免阻塞房间内的处理
		return false
	}
}

// Close 关闭发送队列，写协程随之退出并关闭底层连接
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息交给路由层；退出即视为断开
func (c *ClientConn) readPump(h *Hub, d Dispatcher) {
	defer func() {
		h.unregister(c)
		d.Disconnect(c.id)
		_ = c.ws.Close()
	}()
	c.ws.SetReadLimit(c.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		msgType, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugw("read error", "player", c.id, "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		d.HandleFrame(c.id, payload)
	}
}

// Hub 管理在线连接，实现 Transport：按玩家 ID 投递出站消息
type Hub struct {
	mu      sync.RWMutex
	conns   map[room.PlayerID]*ClientConn
	cfg     WSConfig
	log     *zap.SugaredLogger
	metrics *Metrics

	upgrader websocket.Upgrader
}

func NewHub(cfg WSConfig, log *zap.SugaredLogger, metrics *Metrics) *Hub {
	return &Hub{
		conns:   make(map[room.PlayerID]*ClientConn),
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 实验部署：前端与服务同源或经代理，放开来源校验
				return true
			},
		},
	}
}

// Send 序列化并非阻塞投递；目标不在线或队列已满时丢弃
func (h *Hub) Send(to room.PlayerID, msg Outbound) {
	h.mu.RLock()
	c, ok := h.conns[to]
	h.mu.RUnlock()
	if !ok {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorw("marshal outbound", "type", msg.Type, "err", err)
		return
	}
	if !c.Enqueue(b) {
		h.metrics.IncSendDropped()
		h.log.Warnw("send queue full, message dropped", "player", to, "type", msg.Type)
	}
}

// Len 当前在线连接数
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Handler WebSocket 接入：每个连接分配一个 ULID 作为玩家身份
func (h *Hub) Handler(d Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warnw("upgrade error", "err", err)
			return
		}
		c := NewClientConn(room.PlayerID(ulid.Make().String()), ws, h.cfg)
		h.register(c)
		h.log.Infow("player connected", "player", c.id, "remote", r.RemoteAddr)

		go c.writePump()
		h.Send(c.id, Outbound{Type: KindConnected, Data: Connected{PlayerID: c.id}})
		go c.readPump(h, d)
	}
}

func (h *Hub) register(c *ClientConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	h.metrics.ConnOpened()
}

func (h *Hub) unregister(c *ClientConn) {
	h.mu.Lock()
	if cur, ok := h.conns[c.id]; ok && cur == c {
		delete(h.conns, c.id)
	}
	h.mu.Unlock()
	c.Close()
	h.metrics.ConnClosed()
}

// CloseAll 关闭所有连接（优雅退出时调用）
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*ClientConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
}
