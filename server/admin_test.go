package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gridarena/room"
)

func get(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHTTP_RoomStats(t *testing.T) {
	req := require.New(t)
	s := New(DefaultConfig(), zap.NewNop().Sugar())
	mgr := s.Rooms()

	_, err := mgr.JoinRoom("a", room.JoinRequest{Mode: room.ModeHumanHuman}, nil)
	req.NoError(err)
	solo, err := mgr.JoinRoom("b", room.JoinRequest{Mode: room.ModeHumanAI}, nil)
	req.NoError(err)
	mgr.SetStatus(solo.ID, room.StatusPlaying)

	rec := get(t, s.Handler(), http.MethodGet, "/api/rooms")

	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"totalRooms":2,"activeRooms":1,"waitingRooms":1,"totalPlayers":2}`, rec.Body.String())
}

func TestHTTP_Health(t *testing.T) {
	req := require.New(t)
	now := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

	rec := get(t, HandleHealth(func() time.Time { return now }), http.MethodGet, "/health")
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"status":"OK","timestamp":"2025-03-01T08:30:00Z"}`, rec.Body.String())

	rec = get(t, HandleHealth(time.Now), http.MethodPost, "/health")
	req.Equal(http.StatusMethodNotAllowed, rec.Code)

	s := New(DefaultConfig(), zap.NewNop().Sugar())
	rec = get(t, s.Handler(), http.MethodGet, "/healthz")
	req.Equal("ok", rec.Body.String())
}

func TestHTTP_AdminRooms(t *testing.T) {
	req := require.New(t)
	s := New(DefaultConfig(), zap.NewNop().Sugar())
	v, err := s.Rooms().JoinRoom("alice", room.JoinRequest{Mode: room.ModeHumanHuman, ExperimentType: room.Experiment2P3G}, nil)
	req.NoError(err)

	rec := get(t, s.Handler(), http.MethodGet, "/admin/rooms")
	req.Equal(http.StatusOK, rec.Code)
	var views []room.View
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &views))
	req.Len(views, 1)
	req.Equal(v.ID, views[0].ID)
	req.Equal(room.Experiment2P3G, views[0].ExperimentType)
	req.True(views[0].Players[0].IsHost)

	rec = get(t, s.Handler(), http.MethodGet, "/admin/rooms?id="+v.ID)
	req.Equal(http.StatusOK, rec.Code)

	rec = get(t, s.Handler(), http.MethodGet, "/admin/rooms?id=missing")
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestHTTP_Metrics(t *testing.T) {
	req := require.New(t)
	s := New(DefaultConfig(), zap.NewNop().Sugar())
	s.router.Handle("alice", Inbound{Type: KindPlayerReady})

	rec := get(t, s.Handler(), http.MethodGet, "/metrics")

	req.Equal(http.StatusOK, rec.Code)
	var body struct {
		Online  int              `json:"online"`
		Metrics map[string]int64 `json:"metrics"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Zero(body.Online)
	req.EqualValues(1, body.Metrics["messages_in"])
	req.EqualValues(1, body.Metrics["rejected"])
}
