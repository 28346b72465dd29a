package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry 房间表 + 成员索引（玩家 → 房间）。
//
// 锁顺序固定为 Registry.mu → Room.mu。成员变更同时持有两把锁，
// 因此任何持有其中一把锁的读者都不会看到 players 与索引不一致。
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	order   []string // 创建顺序，保证匹配时先到先得
	members map[PlayerID]string

	newID func() string
	now   func() time.Time
}

// Option 定制 Registry（测试注入 ID 生成器与时钟）
type Option func(*Registry)

func WithIDGenerator(fn func() string) Option {
	return func(g *Registry) { g.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(g *Registry) { g.now = fn }
}

// NewRegistry 创建空注册表，每个进程实例化一次并显式传递
func NewRegistry(opts ...Option) *Registry {
	g := &Registry{
		rooms:   make(map[string]*Room),
		members: make(map[PlayerID]string),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create 创建 waiting 状态的新房间
func (g *Registry) Create(mode Mode, exp ExperimentType) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createLocked(mode, exp)
}

// Get 按 ID 查找房间
func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Delete 删除房间，并同步清理仍指向它的索引项
func (g *Registry) Delete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteLocked(id)
}

// RoomOf 通过成员索引查找玩家所在房间
func (g *Registry) RoomOf(pid PlayerID) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.members[pid]
	if !ok {
		return nil, false
	}
	r, ok := g.rooms[id]
	return r, ok
}

// Len 当前房间数
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Views 按创建顺序返回所有房间快照
func (g *Registry) Views() []View {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return lo.Map(g.order, func(id string, _ int) View { return g.rooms[id].View() })
}

// Stats 汇总房间与玩家数量
func (g *Registry) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := Stats{TotalRooms: len(g.rooms), TotalPlayers: len(g.members)}
	for _, r := range g.rooms {
		r.mu.Lock()
		switch r.status {
		case StatusPlaying:
			st.ActiveRooms++
		case StatusWaiting:
			st.WaitingRooms++
		}
		r.mu.Unlock()
	}
	return st
}

func (g *Registry) createLocked(mode Mode, exp ExperimentType) *Room {
	id := g.newID()
	for _, taken := g.rooms[id]; taken; _, taken = g.rooms[id] {
		id = g.newID()
	}
	now := g.now()
	r := &Room{
		ID:             id,
		Mode:           mode,
		ExperimentType: exp,
		CreatedAt:      now,
		status:         StatusWaiting,
		lastUpdatedAt:  now,
		now:            g.now,
	}
	g.rooms[id] = r
	g.order = append(g.order, id)
	return r
}

func (g *Registry) deleteLocked(id string) {
	r, ok := g.rooms[id]
	if !ok {
		return
	}
	r.mu.Lock()
	for _, p := range r.players {
		if g.members[p.ID] == id {
			delete(g.members, p.ID)
		}
	}
	r.players = nil
	r.mu.Unlock()
	delete(g.rooms, id)
	g.order = lo.Without(g.order, id)
}

// indexPlayer / unindexPlayer 只能在持有 g.mu 与对应 Room.mu 时调用，
// 与 players 的修改处于同一临界区。
func (g *Registry) indexPlayer(pid PlayerID, roomID string) { g.members[pid] = roomID }

func (g *Registry) unindexPlayer(pid PlayerID) { delete(g.members, pid) }

// findAvailableLocked 按创建顺序寻找同模式、等待中且未满的房间
func (g *Registry) findAvailableLocked(mode Mode) *Room {
	for _, id := range g.order {
		r := g.rooms[id]
		if r.Mode != mode {
			continue
		}
		r.mu.Lock()
		open := r.status == StatusWaiting && !r.full()
		r.mu.Unlock()
		if open {
			return r
		}
	}
	return nil
}
