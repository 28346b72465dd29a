package room

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/samber/lo"
)

// PlayerID 玩家标识，即传输层连接的唯一 ID
type PlayerID string

// Mode 房间模式，创建后不可变，决定房间容量
type Mode string

const (
	ModeHumanAI    Mode = "human-ai"    // 单人 + AI 代理
	ModeHumanHuman Mode = "human-human" // 双人
)

// Capacity 返回该模式下房间可容纳的真人数
func (m Mode) Capacity() int {
	if m == ModeHumanHuman {
		return 2
	}
	return 1
}

// ExperimentType 实验类型（玩家数 P × 目标数 G）
type ExperimentType string

const (
	Experiment1P1G ExperimentType = "1P1G"
	Experiment1P2G ExperimentType = "1P2G"
	Experiment2P2G ExperimentType = "2P2G"
	Experiment2P3G ExperimentType = "2P3G"
)

// Status 房间状态机：waiting → playing → finished
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player 房间内的成员记录，离开房间即删除
type Player struct {
	ID           PlayerID
	JoinedAt     time.Time
	IsReady      bool
	IsMatchReady bool
}

// Room 一次实验会话的协作上下文。
// 不可变字段直接导出；其余字段由 mu 保护，只能经 Registry/Manager/Tx 访问。
type Room struct {
	ID             string
	Mode           Mode
	ExperimentType ExperimentType
	CreatedAt      time.Time

	mu            sync.Mutex
	players       []*Player // 加入顺序，下标 0 为房主
	status        Status
	sharedState   json.RawMessage
	lastUpdatedAt time.Time
	now           func() time.Time
}

// Capacity 房间容量，由模式推导
func (r *Room) Capacity() int { return r.Mode.Capacity() }

// View 加锁读取房间快照
func (r *Room) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// SharedState 返回最近一次同步的游戏快照（原样透传）
func (r *Room) SharedState() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sharedState
}

func (r *Room) indexOf(id PlayerID) int {
	_, idx, ok := lo.FindIndexOf(r.players, func(p *Player) bool { return p.ID == id })
	if !ok {
		return -1
	}
	return idx
}

func (r *Room) full() bool { return len(r.players) >= r.Capacity() }

func (r *Room) touch() { r.lastUpdatedAt = r.now() }

func (r *Room) addPlayer(id PlayerID) {
	r.players = append(r.players, &Player{ID: id, JoinedAt: r.now()})
	r.touch()
}

func (r *Room) removePlayer(id PlayerID) {
	r.players = lo.Reject(r.players, func(p *Player, _ int) bool { return p.ID == id })
	r.touch()
}

func (r *Room) allReadyLocked() bool {
	return len(r.players) == r.Capacity() && lo.EveryBy(r.players, func(p *Player) bool { return p.IsReady })
}

func (r *Room) allMatchReadyLocked() bool {
	return len(r.players) == r.Capacity() && lo.EveryBy(r.players, func(p *Player) bool { return p.IsMatchReady })
}

func (r *Room) viewLocked() View {
	return View{
		ID:             r.ID,
		Mode:           r.Mode,
		ExperimentType: r.ExperimentType,
		Status:         r.status,
		Capacity:       r.Capacity(),
		Players: lo.Map(r.players, func(p *Player, i int) PlayerView {
			return PlayerView{
				ID:           p.ID,
				JoinedAt:     p.JoinedAt,
				IsReady:      p.IsReady,
				IsMatchReady: p.IsMatchReady,
				IsHost:       i == 0,
			}
		}),
		SharedState:   r.sharedState,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.lastUpdatedAt,
	}
}

// PlayerView 广播给客户端的玩家信息，IsHost 由加入顺序推导
type PlayerView struct {
	ID           PlayerID  `json:"id"`
	JoinedAt     time.Time `json:"joinedAt"`
	IsReady      bool      `json:"isReady"`
	IsMatchReady bool      `json:"isMatchReady"`
	IsHost       bool      `json:"isHost"`
}

// View 房间的只读快照，可安全跨协程传递
type View struct {
	ID             string          `json:"roomId"`
	Mode           Mode            `json:"gameMode"`
	ExperimentType ExperimentType  `json:"experimentType"`
	Status         Status          `json:"status"`
	Capacity       int             `json:"capacity"`
	Players        []PlayerView    `json:"players"`
	SharedState    json.RawMessage `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastUpdatedAt  time.Time       `json:"lastUpdatedAt"`
}

// Full 是否已满员
func (v View) Full() bool { return len(v.Players) >= v.Capacity }

// IsHost 判断 id 是否为房主（players[0]）
func (v View) IsHost(id PlayerID) bool {
	return len(v.Players) > 0 && v.Players[0].ID == id
}

// PlayerIDs 按加入顺序返回成员 ID
func (v View) PlayerIDs() []PlayerID {
	return lo.Map(v.Players, func(p PlayerView, _ int) PlayerID { return p.ID })
}

// Stats 房间统计，对应 /api/rooms
type Stats struct {
	TotalRooms   int `json:"totalRooms"`
	ActiveRooms  int `json:"activeRooms"`
	WaitingRooms int `json:"waitingRooms"`
	TotalPlayers int `json:"totalPlayers"`
}
