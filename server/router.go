package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"gridarena/room"
)

const (
	defaultMode           = room.ModeHumanAI
	defaultExperimentType = room.Experiment2P2G
)

// Router 将入站消息翻译为生命周期操作并计算广播。
// 一条消息的状态修改与出站投递在同一房间锁内完成，保证同房间内的顺序。
type Router struct {
	rooms     *room.Manager
	transport Transport
	validate  *validator.Validate
	log       *zap.SugaredLogger
	metrics   *Metrics
	now       func() time.Time
}

func NewRouter(rooms *room.Manager, transport Transport, log *zap.SugaredLogger, metrics *Metrics) *Router {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Router{
		rooms:     rooms,
		transport: transport,
		validate:  validator.New(),
		log:       log,
		metrics:   metrics,
		now:       time.Now,
	}
}

// HandleFrame 解析一帧 JSON 并分发
func (rt *Router) HandleFrame(sender room.PlayerID, payload []byte) {
	var in Inbound
	if err := json.Unmarshal(payload, &in); err != nil {
		rt.metrics.IncMessagesIn()
		rt.reject(sender, CodeBadRequest, "invalid json")
		return
	}
	rt.Handle(sender, in)
}

// Handle 按消息类型分发。sender 为连接身份，载荷中的身份字段一律忽略。
func (rt *Router) Handle(sender room.PlayerID, in Inbound) {
	rt.metrics.IncMessagesIn()
	switch in.Type {
	case KindJoinRoom:
		var d JoinRoomData
		if rt.decode(sender, in, &d) {
			rt.joinRoom(sender, d)
		}
	case KindPlayerReady:
		rt.playerReady(sender)
	case KindMatchPlayReady:
		rt.matchPlayReady(sender)
	case KindGameAction:
		var d GameActionData
		if rt.decode(sender, in, &d) {
			rt.gameAction(sender, d)
		}
	case KindSyncGameState:
		var d SyncGameStateData
		if rt.decode(sender, in, &d) {
			rt.syncGameState(sender, d)
		}
	case KindTrialComplete:
		var d TrialCompleteData
		if rt.decode(sender, in, &d) {
			rt.trialComplete(sender, d)
		}
	case KindExperimentComplete:
		var d ExperimentCompleteData
		if rt.decode(sender, in, &d) {
			rt.experimentComplete(sender, d)
		}
	case KindChatMessage:
		var d ChatMessageData
		if rt.decode(sender, in, &d) {
			rt.chatMessage(sender, d)
		}
	default:
		rt.reject(sender, CodeUnknownType, fmt.Sprintf("unknown message type %q", in.Type))
	}
}

// Disconnect 连接断开：移出房间，并通知剩余玩家
func (rt *Router) Disconnect(sender room.PlayerID) {
	rt.metrics.IncDisconnects()
	left := rt.rooms.LeaveRoom(sender, func(tx *room.Tx) {
		v := tx.View()
		rt.broadcast(v, Outbound{Type: KindPlayerDisconnected, Data: Roster{PlayerID: sender, Players: v.Players}})
	})
	if left {
		rt.log.Infow("player disconnected", "player", sender)
	}
}

func (rt *Router) joinRoom(sender room.PlayerID, d JoinRoomData) {
	req := room.JoinRequest{
		RoomID:         d.RoomID,
		Mode:           lo.Ternary(d.GameMode == "", defaultMode, d.GameMode),
		ExperimentType: lo.Ternary(d.ExperimentType == "", defaultExperimentType, d.ExperimentType),
	}
	_, err := rt.rooms.JoinRoom(sender, req, func(tx *room.Tx) {
		v := tx.View()
		rt.send(sender, Outbound{Type: KindRoomJoined, Data: RoomJoined{
			RoomID:         v.ID,
			GameMode:       v.Mode,
			ExperimentType: v.ExperimentType,
			Players:        v.Players,
			IsHost:         v.IsHost(sender),
		}})
		rt.broadcast(v, Outbound{Type: KindPlayerJoined, Data: Roster{PlayerID: sender, Players: v.Players}}, sender)
		if v.Full() {
			rt.broadcast(v, Outbound{Type: KindRoomFull, Data: RoomFull{
				RoomID:      v.ID,
				Players:     v.Players,
				ConnectedAt: rt.now().UnixMilli(),
			}})
		}
		rt.log.Infow("player joined room", "player", sender, "room", v.ID, "mode", v.Mode, "players", len(v.Players))
		rt.maybeStart(tx, tx.AllReady)
	})
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		rt.reject(sender, CodeRoomNotFound, err.Error())
	case errors.Is(err, room.ErrRoomFull):
		rt.reject(sender, CodeRoomFull, err.Error())
	case err != nil:
		rt.reject(sender, CodeBadRequest, err.Error())
	}
}

func (rt *Router) playerReady(sender room.PlayerID) {
	rt.inRoom(sender, func(tx *room.Tx) {
		tx.SetReady(sender, true)
		v := tx.View()
		rt.broadcast(v, Outbound{Type: KindPlayerReadyStatus, Data: Roster{PlayerID: sender, Players: v.Players}})
		rt.maybeStart(tx, tx.AllReady)
	})
}

func (rt *Router) matchPlayReady(sender room.PlayerID) {
	rt.inRoom(sender, func(tx *room.Tx) {
		tx.SetMatchReady(sender, true)
		v := tx.View()
		rt.broadcast(v, Outbound{Type: KindMatchPlayReadyStatus, Data: Roster{PlayerID: sender, Players: v.Players}})
		rt.maybeStart(tx, tx.AllMatchReady)
	})
}

func (rt *Router) gameAction(sender room.PlayerID, d GameActionData) {
	rt.inRoom(sender, func(tx *room.Tx) {
		if tx.Status() != room.StatusPlaying {
			rt.metrics.IncDropped()
			rt.log.Debugw("game action dropped", "player", sender, "room", tx.ID(), "status", tx.Status())
			return
		}
		rt.broadcast(tx.View(), Outbound{Type: KindPlayerAction, Data: PlayerAction{
			PlayerID:  sender,
			Action:    d.Action,
			Timestamp: rt.now().UnixMilli(),
		}}, sender)
	})
}

func (rt *Router) syncGameState(sender room.PlayerID, d SyncGameStateData) {
	rt.inRoom(sender, func(tx *room.Tx) {
		tx.UpdateSharedState(d.Snapshot)
		rt.broadcast(tx.View(), Outbound{Type: KindGameStateUpdate, Data: GameStateUpdate{Snapshot: d.Snapshot}}, sender)
	})
}

func (rt *Router) trialComplete(sender room.PlayerID, d TrialCompleteData) {
	rt.inRoom(sender, func(tx *room.Tx) {
		rt.broadcast(tx.View(), Outbound{Type: KindTrialCompleted, Data: TrialCompleted{PlayerID: sender, TrialData: d.TrialData}})
	})
}

func (rt *Router) experimentComplete(sender room.PlayerID, d ExperimentCompleteData) {
	rt.inRoom(sender, func(tx *room.Tx) {
		tx.SetStatus(room.StatusFinished)
		tx.ResetReadiness()
		rt.broadcast(tx.View(), Outbound{Type: KindExperimentCompleted, Data: ExperimentCompleted{
			PlayerID:       sender,
			ExperimentData: d.ExperimentData,
		}})
		rt.log.Infow("experiment completed", "room", tx.ID(), "player", sender)
	})
}

func (rt *Router) chatMessage(sender room.PlayerID, d ChatMessageData) {
	rt.inRoom(sender, func(tx *room.Tx) {
		rt.broadcast(tx.View(), Outbound{Type: KindChatMessage, Data: ChatMessage{
			PlayerID:  sender,
			Message:   d.Message,
			Timestamp: rt.now().UnixMilli(),
		}}, sender)
	})
}

// maybeStart 准备屏障：仅在 waiting 且 ready() 成立时开局，每局只触发一次
func (rt *Router) maybeStart(tx *room.Tx, ready func() bool) {
	if tx.Status() != room.StatusWaiting || !ready() {
		return
	}
	tx.SetStatus(room.StatusPlaying)
	v := tx.View()
	rt.broadcast(v, Outbound{Type: KindGameStarted, Data: GameStarted{
		RoomID:         v.ID,
		ExperimentType: v.ExperimentType,
		GameMode:       v.Mode,
		Players:        assignRoles(v),
	}})
	// 为下一局做准备：清空准备标记
	tx.ResetReadiness()
	rt.metrics.IncGamesStarted()
	rt.log.Infow("game started", "room", v.ID, "mode", v.Mode, "experiment", v.ExperimentType)
}

// assignRoles 下标 0 为房主（human）；其余在 human-ai 模式下为 ai，双人模式下为 human
func assignRoles(v room.View) []PlayerRole {
	return lo.Map(v.Players, func(p room.PlayerView, i int) PlayerRole {
		role := "human"
		if i > 0 && v.Mode == room.ModeHumanAI {
			role = "ai"
		}
		return PlayerRole{ID: p.ID, PlayerIndex: i, Type: role}
	})
}

// inRoom 在发送者所在房间内串行执行 fn；不在房间时仅回复发送者错误
func (rt *Router) inRoom(sender room.PlayerID, fn func(tx *room.Tx)) {
	if !rt.rooms.Update(sender, fn) {
		rt.reject(sender, CodeNotInRoom, "not in a room")
	}
}

// decode 解析并校验载荷，失败时回复发送者，不触及房间状态
func (rt *Router) decode(sender room.PlayerID, in Inbound, dst any) bool {
	if len(in.Data) > 0 {
		if err := json.Unmarshal(in.Data, dst); err != nil {
			rt.reject(sender, CodeBadRequest, fmt.Sprintf("invalid %s payload", in.Type))
			return false
		}
	}
	if err := rt.validate.Struct(dst); err != nil {
		rt.reject(sender, CodeBadRequest, fmt.Sprintf("invalid %s payload: %v", in.Type, err))
		return false
	}
	return true
}

// broadcast 向房间成员投递，exclude 中的玩家不接收
func (rt *Router) broadcast(v room.View, msg Outbound, exclude ...room.PlayerID) {
	for _, id := range lo.Without(v.PlayerIDs(), exclude...) {
		rt.send(id, msg)
	}
}

func (rt *Router) send(to room.PlayerID, msg Outbound) {
	rt.metrics.IncDeliveries()
	rt.transport.Send(to, msg)
}

func (rt *Router) reject(sender room.PlayerID, code, message string) {
	rt.metrics.IncRejected()
	rt.log.Debugw("message rejected", "player", sender, "code", code, "reason", message)
	rt.send(sender, Outbound{Type: KindError, Data: ErrorData{Code: code, Message: message}})
}
