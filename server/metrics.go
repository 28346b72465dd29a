package server

import (
	"sync/atomic"
)

// Metrics 协调层运行指标（用于监控与调试）
type Metrics struct {
	MessagesIn   int64 // 收到的入站消息数
	Rejected     int64 // 因格式错误/无房间/房间不存在等被拒绝的消息数
	Dropped      int64 // 状态不符被静默丢弃的消息数（如非 playing 时的 game-action）
	Deliveries   int64 // 投递给单个连接的出站消息数
	SendDropped  int64 // 因发送队列满被丢弃的出站消息数
	GamesStarted int64 // waiting → playing 次数
	Disconnects  int64 // 连接断开次数
	RoomsSwept   int64 // 被清理任务回收的房间数
	Connections  int64 // 当前在线连接数
}

func (m *Metrics) IncMessagesIn()   { atomic.AddInt64(&m.MessagesIn, 1) }
func (m *Metrics) IncRejected()     { atomic.AddInt64(&m.Rejected, 1) }
func (m *Metrics) IncDropped()      { atomic.AddInt64(&m.Dropped, 1) }
func (m *Metrics) IncDeliveries()   { atomic.AddInt64(&m.Deliveries, 1) }
func (m *Metrics) IncSendDropped()  { atomic.AddInt64(&m.SendDropped, 1) }
func (m *Metrics) IncGamesStarted() { atomic.AddInt64(&m.GamesStarted, 1) }
func (m *Metrics) IncDisconnects()  { atomic.AddInt64(&m.Disconnects, 1) }
func (m *Metrics) AddRoomsSwept(n int) {
	atomic.AddInt64(&m.RoomsSwept, int64(n))
}
func (m *Metrics) ConnOpened() { atomic.AddInt64(&m.Connections, 1) }
func (m *Metrics) ConnClosed() { atomic.AddInt64(&m.Connections, -1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"messages_in":   atomic.LoadInt64(&m.MessagesIn),
		"rejected":      atomic.LoadInt64(&m.Rejected),
		"dropped":       atomic.LoadInt64(&m.Dropped),
		"deliveries":    atomic.LoadInt64(&m.Deliveries),
		"send_dropped":  atomic.LoadInt64(&m.SendDropped),
		"games_started": atomic.LoadInt64(&m.GamesStarted),
		"disconnects":   atomic.LoadInt64(&m.Disconnects),
		"rooms_swept":   atomic.LoadInt64(&m.RoomsSwept),
		"connections":   atomic.LoadInt64(&m.Connections),
	}
}
