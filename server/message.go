package server

import (
	"encoding/json"

	"gridarena/room"
)

// Kind 消息类型，入站与出站共用一个封闭集合
type Kind string

// 入站
const (
	KindJoinRoom           Kind = "join-room"
	KindPlayerReady        Kind = "player-ready"
	KindMatchPlayReady     Kind = "match-play-ready"
	KindGameAction         Kind = "game-action"
	KindSyncGameState      Kind = "sync-game-state"
	KindTrialComplete      Kind = "trial-complete"
	KindExperimentComplete Kind = "experiment-complete"
	KindChatMessage        Kind = "chat-message" // 出站同名
)

// 出站
const (
	KindConnected            Kind = "connected"
	KindRoomJoined           Kind = "room-joined"
	KindPlayerJoined         Kind = "player-joined"
	KindRoomFull             Kind = "room-full"
	KindPlayerReadyStatus    Kind = "player-ready-status"
	KindMatchPlayReadyStatus Kind = "match-play-ready-status"
	KindGameStarted          Kind = "game-started"
	KindPlayerAction         Kind = "player-action"
	KindGameStateUpdate      Kind = "game-state-update"
	KindTrialCompleted       Kind = "trial-completed"
	KindExperimentCompleted  Kind = "experiment-completed"
	KindPlayerDisconnected   Kind = "player-disconnected"
	KindError                Kind = "error"
)

// Inbound 入站消息封包（WebSocket 文本帧）
// 示例：{"type":"join-room","data":{"gameMode":"human-human"}}
type Inbound struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound 出站消息封包，Data 为下方具体载荷之一
type Outbound struct {
	Type Kind `json:"type"`
	Data any  `json:"data,omitempty"`
}

// 入站载荷

type JoinRoomData struct {
	RoomID         string              `json:"roomId"`
	GameMode       room.Mode           `json:"gameMode" validate:"omitempty,oneof=human-ai human-human"`
	ExperimentType room.ExperimentType `json:"experimentType" validate:"omitempty,oneof=1P1G 1P2G 2P2G 2P3G"`
}

type GameActionData struct {
	Action json.RawMessage `json:"action" validate:"required"`
}

type SyncGameStateData struct {
	Snapshot json.RawMessage `json:"snapshot" validate:"required"`
}

type TrialCompleteData struct {
	TrialData json.RawMessage `json:"trialData" validate:"required"`
}

type ExperimentCompleteData struct {
	ExperimentData json.RawMessage `json:"experimentData" validate:"required"`
}

type ChatMessageData struct {
	Message json.RawMessage `json:"message" validate:"required"`
}

// 出站载荷

type Connected struct {
	PlayerID room.PlayerID `json:"playerId"`
}

type RoomJoined struct {
	RoomID         string              `json:"roomId"`
	GameMode       room.Mode           `json:"gameMode"`
	ExperimentType room.ExperimentType `json:"experimentType"`
	Players        []room.PlayerView   `json:"players"`
	IsHost         bool                `json:"isHost"`
}

// Roster 携带触发者与最新成员列表的通知
// （player-joined / player-ready-status / match-play-ready-status / player-disconnected）
type Roster struct {
	PlayerID room.PlayerID     `json:"playerId"`
	Players  []room.PlayerView `json:"players"`
}

type RoomFull struct {
	RoomID      string            `json:"roomId"`
	Players     []room.PlayerView `json:"players"`
	ConnectedAt int64             `json:"connectedAt"`
}

// PlayerRole 开局时的角色分配
type PlayerRole struct {
	ID          room.PlayerID `json:"id"`
	PlayerIndex int           `json:"playerIndex"`
	Type        string        `json:"type"` // human | ai
}

type GameStarted struct {
	RoomID         string              `json:"roomId"`
	ExperimentType room.ExperimentType `json:"experimentType"`
	GameMode       room.Mode           `json:"gameMode"`
	Players        []PlayerRole        `json:"players"`
}

type PlayerAction struct {
	PlayerID  room.PlayerID   `json:"playerId"`
	Action    json.RawMessage `json:"action"`
	Timestamp int64           `json:"timestamp"`
}

type GameStateUpdate struct {
	Snapshot json.RawMessage `json:"snapshot"`
}

type TrialCompleted struct {
	PlayerID  room.PlayerID   `json:"playerId"`
	TrialData json.RawMessage `json:"trialData"`
}

type ExperimentCompleted struct {
	PlayerID       room.PlayerID   `json:"playerId"`
	ExperimentData json.RawMessage `json:"experimentData"`
}

type ChatMessage struct {
	PlayerID  room.PlayerID   `json:"playerId"`
	Message   json.RawMessage `json:"message"`
	Timestamp int64           `json:"timestamp"`
}

// 错误码，仅回复发送者
const (
	CodeRoomNotFound = "room_not_found"
	CodeRoomFull     = "room_full"
	CodeNotInRoom    = "not_in_room"
	CodeBadRequest   = "bad_request"
	CodeUnknownType  = "unknown_type"
)

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
