package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gridarena/room"
)

func newWSTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	// 连接协程可能在测试结束后才退出，这里不用 zaptest
	s := New(DefaultConfig(), zap.NewNop().Sugar())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// readUntil 读取直到出现指定类型的消息，返回其 data
func readUntil(t *testing.T, c *websocket.Conn, kind Kind) json.RawMessage {
	t.Helper()
	for {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env Inbound
		require.NoError(t, c.ReadJSON(&env))
		if env.Type == kind {
			return env.Data
		}
	}
}

func sendWS(t *testing.T, c *websocket.Conn, kind Kind, data string) {
	t.Helper()
	msg := map[string]any{"type": kind}
	if data != "" {
		msg["data"] = json.RawMessage(data)
	}
	require.NoError(t, c.WriteJSON(msg))
}

func TestWebSocket_TwoPlayersFullSession(t *testing.T) {
	req := require.New(t)
	ts, s := newWSTestServer(t)

	a := dialWS(t, ts)
	b := dialWS(t, ts)

	var connA, connB Connected
	req.NoError(json.Unmarshal(readUntil(t, a, KindConnected), &connA))
	req.NoError(json.Unmarshal(readUntil(t, b, KindConnected), &connB))
	req.NotEqual(connA.PlayerID, connB.PlayerID)

	// Given A 创建双人房，B 按房间 ID 加入
	sendWS(t, a, KindJoinRoom, `{"gameMode":"human-human","experimentType":"2P2G"}`)
	var joined RoomJoined
	req.NoError(json.Unmarshal(readUntil(t, a, KindRoomJoined), &joined))
	req.True(joined.IsHost)

	sendWS(t, b, KindJoinRoom, `{"roomId":"`+joined.RoomID+`"}`)
	var joinedB RoomJoined
	req.NoError(json.Unmarshal(readUntil(t, b, KindRoomJoined), &joinedB))
	req.False(joinedB.IsHost)
	req.Equal(joined.RoomID, joinedB.RoomID)
	readUntil(t, a, KindPlayerJoined)

	// When 双方准备
	sendWS(t, a, KindPlayerReady, "")
	sendWS(t, b, KindPlayerReady, "")

	// Then 双方收到 game-started
	var started GameStarted
	req.NoError(json.Unmarshal(readUntil(t, a, KindGameStarted), &started))
	req.Len(started.Players, 2)
	req.Equal(connA.PlayerID, started.Players[0].ID)
	readUntil(t, b, KindGameStarted)

	// When B 发送动作，A 收到
	sendWS(t, b, KindGameAction, `{"action":{"dir":"left"}}`)
	var action PlayerAction
	req.NoError(json.Unmarshal(readUntil(t, a, KindPlayerAction), &action))
	req.Equal(connB.PlayerID, action.PlayerID)

	// When B 断开，A 收到 player-disconnected
	req.NoError(b.Close())
	var notice Roster
	req.NoError(json.Unmarshal(readUntil(t, a, KindPlayerDisconnected), &notice))
	req.Equal(connB.PlayerID, notice.PlayerID)
	req.Len(notice.Players, 1)

	v, ok := s.Rooms().Get(joined.RoomID)
	req.True(ok)
	req.Equal([]room.PlayerID{connA.PlayerID}, v.PlayerIDs())
}

func TestWebSocket_MalformedFrameGetsError(t *testing.T) {
	req := require.New(t)
	ts, _ := newWSTestServer(t)
	c := dialWS(t, ts)
	readUntil(t, c, KindConnected)

	req.NoError(c.WriteMessage(websocket.TextMessage, []byte("garbage")))

	var e ErrorData
	req.NoError(json.Unmarshal(readUntil(t, c, KindError), &e))
	req.Equal(CodeBadRequest, e.Code)
}

func TestClientConn_EnqueueAfterCloseIsDropped(t *testing.T) {
	req := require.New(t)
	c := &ClientConn{send: make(chan []byte, 1)}

	req.True(c.Enqueue([]byte("a")))
	req.False(c.Enqueue([]byte("b")), "queue full")

	c.Close()
	c.Close()
	req.False(c.Enqueue([]byte("c")))
}
