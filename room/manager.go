package room

import "time"

// JoinRequest 加入房间的参数；RoomID 为空时自动匹配或新建
type JoinRequest struct {
	RoomID         string
	Mode           Mode
	ExperimentType ExperimentType
}

// Manager 会话生命周期管理：加入、离开、准备状态、共享状态与清理。
// 同一房间的所有修改在房间锁内串行执行，不同房间互不阻塞。
type Manager struct {
	reg *Registry
}

func NewManager(reg *Registry) *Manager {
	return &Manager{reg: reg}
}

// Registry 返回底层注册表（统计与管理接口使用）
func (m *Manager) Registry() *Registry { return m.reg }

// JoinRoom 将玩家加入房间。
// 指定 RoomID 时房间不存在返回 ErrRoomNotFound；否则按创建顺序匹配同模式的等待房间，找不到则新建。
// 目标房间已满返回 ErrRoomFull。玩家若已在其他房间，会先被静默移出。
// then 在成员变更之后、锁释放之前执行，用于按序投递通知。
func (m *Manager) JoinRoom(pid PlayerID, req JoinRequest, then func(tx *Tx)) (View, error) {
	g := m.reg
	g.mu.Lock()
	defer g.mu.Unlock()

	var target *Room
	if req.RoomID != "" {
		r, ok := g.rooms[req.RoomID]
		if !ok {
			return View{}, ErrRoomNotFound
		}
		target = r
	} else {
		target = g.findAvailableLocked(req.Mode)
	}

	if target != nil {
		target.mu.Lock()
		// 已在目标房间内：重复加入视为幂等
		if g.members[pid] == target.ID && target.indexOf(pid) >= 0 {
			if then != nil {
				then(&Tx{room: target})
			}
			v := target.viewLocked()
			target.mu.Unlock()
			return v, nil
		}
		full := target.full()
		target.mu.Unlock()
		if full {
			return View{}, ErrRoomFull
		}
	}

	g.leaveLocked(pid, nil)

	if target == nil {
		target = g.createLocked(req.Mode, req.ExperimentType)
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	target.addPlayer(pid)
	g.indexPlayer(pid, target.ID)
	if then != nil {
		then(&Tx{room: target})
	}
	return target.viewLocked(), nil
}

// LeaveRoom 将玩家移出所在房间；房间变空则删除。未加入任何房间时为空操作。
// then 仅在房间仍有剩余玩家时执行（持锁），返回值表示玩家此前是否在房间中。
func (m *Manager) LeaveRoom(pid PlayerID, then func(tx *Tx)) bool {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	return m.reg.leaveLocked(pid, then)
}

func (g *Registry) leaveLocked(pid PlayerID, then func(tx *Tx)) bool {
	roomID, ok := g.members[pid]
	if !ok {
		return false
	}
	r, ok := g.rooms[roomID]
	if !ok {
		g.unindexPlayer(pid)
		return false
	}
	r.mu.Lock()
	r.removePlayer(pid)
	g.unindexPlayer(pid)
	empty := len(r.players) == 0
	if !empty && then != nil {
		then(&Tx{room: r})
	}
	r.mu.Unlock()
	if empty {
		g.deleteLocked(roomID)
	}
	return true
}

// Update 在玩家所在房间的锁内执行 fn，玩家不在任何房间时返回 false。
// 这是路由层处理一条入站消息的串行单元。
func (m *Manager) Update(pid PlayerID, fn func(tx *Tx)) bool {
	g := m.reg
	g.mu.RLock()
	roomID, ok := g.members[pid]
	r := g.rooms[roomID]
	if !ok || r == nil {
		g.mu.RUnlock()
		return false
	}
	r.mu.Lock()
	g.mu.RUnlock()
	defer r.mu.Unlock()
	fn(&Tx{room: r})
	return true
}

// UpdateRoom 与 Update 相同，但按房间 ID 定位
func (m *Manager) UpdateRoom(roomID string, fn func(tx *Tx)) bool {
	g := m.reg
	g.mu.RLock()
	r, ok := g.rooms[roomID]
	if !ok {
		g.mu.RUnlock()
		return false
	}
	r.mu.Lock()
	g.mu.RUnlock()
	defer r.mu.Unlock()
	fn(&Tx{room: r})
	return true
}

// SetReady 设置 isReady 并返回更新后的房间快照，供调用方判断是否开局
func (m *Manager) SetReady(pid PlayerID, ready bool) (View, bool) {
	var (
		v     View
		found bool
	)
	m.Update(pid, func(tx *Tx) {
		if found = tx.SetReady(pid, ready); found {
			v = tx.View()
		}
	})
	return v, found
}

// SetMatchReady 设置 isMatchReady 并返回更新后的房间快照
func (m *Manager) SetMatchReady(pid PlayerID, ready bool) (View, bool) {
	var (
		v     View
		found bool
	)
	m.Update(pid, func(tx *Tx) {
		if found = tx.SetMatchReady(pid, ready); found {
			v = tx.View()
		}
	})
	return v, found
}

// AllReady 房间满员且所有人 isReady
func (m *Manager) AllReady(roomID string) bool {
	var ok bool
	m.UpdateRoom(roomID, func(tx *Tx) { ok = tx.AllReady() })
	return ok
}

// AllMatchReady 房间满员且所有人 isMatchReady
func (m *Manager) AllMatchReady(roomID string) bool {
	var ok bool
	m.UpdateRoom(roomID, func(tx *Tx) { ok = tx.AllMatchReady() })
	return ok
}

// UpdateSharedState 替换房间共享快照；房间不存在时为空操作
func (m *Manager) UpdateSharedState(roomID string, snapshot []byte) {
	m.UpdateRoom(roomID, func(tx *Tx) { tx.UpdateSharedState(snapshot) })
}

// SetStatus 直接设置房间状态；房间不存在时为空操作
func (m *Manager) SetStatus(roomID string, status Status) {
	m.UpdateRoom(roomID, func(tx *Tx) { tx.SetStatus(status) })
}

// RoomOf 返回玩家所在房间快照
func (m *Manager) RoomOf(pid PlayerID) (View, bool) {
	r, ok := m.reg.RoomOf(pid)
	if !ok {
		return View{}, false
	}
	return r.View(), true
}

// Get 返回房间快照
func (m *Manager) Get(roomID string) (View, bool) {
	r, ok := m.reg.Get(roomID)
	if !ok {
		return View{}, false
	}
	return r.View(), true
}

// SweepStale 回收等待中、无人且创建超过 maxAge 的房间，返回回收数量
func (m *Manager) SweepStale(maxAge time.Duration) int {
	g := m.reg
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	var stale []string
	for _, id := range g.order {
		r := g.rooms[id]
		r.mu.Lock()
		if r.status == StatusWaiting && len(r.players) == 0 && now.Sub(r.CreatedAt) > maxAge {
			stale = append(stale, id)
		}
		r.mu.Unlock()
	}
	for _, id := range stale {
		g.deleteLocked(id)
	}
	return len(stale)
}

// Stats 房间统计
func (m *Manager) Stats() Stats { return m.reg.Stats() }
