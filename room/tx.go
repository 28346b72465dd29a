package room

import "encoding/json"

// Tx 在持有房间锁期间操作房间的句柄，只在 Manager 回调内有效。
// 回调中不得再调用 Manager/Registry 的方法，也不得阻塞。
type Tx struct {
	room *Room
}

func (tx *Tx) ID() string { return tx.room.ID }

func (tx *Tx) View() View { return tx.room.viewLocked() }

func (tx *Tx) Status() Status { return tx.room.status }

func (tx *Tx) SetStatus(s Status) {
	tx.room.status = s
	tx.room.touch()
}

// SetReady 设置玩家的 isReady，玩家不在房间时返回 false
func (tx *Tx) SetReady(pid PlayerID, ready bool) bool {
	idx := tx.room.indexOf(pid)
	if idx < 0 {
		return false
	}
	tx.room.players[idx].IsReady = ready
	tx.room.touch()
	return true
}

// SetMatchReady 设置玩家的 isMatchReady，与 isReady 相互独立
func (tx *Tx) SetMatchReady(pid PlayerID, ready bool) bool {
	idx := tx.room.indexOf(pid)
	if idx < 0 {
		return false
	}
	tx.room.players[idx].IsMatchReady = ready
	tx.room.touch()
	return true
}

func (tx *Tx) AllReady() bool { return tx.room.allReadyLocked() }

func (tx *Tx) AllMatchReady() bool { return tx.room.allMatchReadyLocked() }

// ResetReadiness 清空所有玩家的两个准备标记，下一局需重新握手
func (tx *Tx) ResetReadiness() {
	for _, p := range tx.room.players {
		p.IsReady = false
		p.IsMatchReady = false
	}
}

// UpdateSharedState 替换共享快照，不校验内容
func (tx *Tx) UpdateSharedState(snapshot json.RawMessage) {
	tx.room.sharedState = append(json.RawMessage(nil), snapshot...)
	tx.room.touch()
}

func (tx *Tx) SharedState() json.RawMessage { return tx.room.sharedState }
