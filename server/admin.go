package server

import (
	"encoding/json"
	"net/http"
	"time"

	"gridarena/room"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func onlyGet(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// HandleStats 房间统计
// GET /api/rooms
func HandleStats(rooms *room.Manager) http.HandlerFunc {
	return onlyGet(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rooms.Stats())
	})
}

// HandleHealth 存活探针
// GET /health
func HandleHealth(now func() time.Time) http.HandlerFunc {
	return onlyGet(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": now().UTC().Format(time.RFC3339),
		})
	})
}

// HandleAdminRooms 列出所有房间快照（调试用）
// GET /admin/rooms
// GET /admin/rooms?id=<roomId>
func HandleAdminRooms(rooms *room.Manager) http.HandlerFunc {
	return onlyGet(func(w http.ResponseWriter, r *http.Request) {
		if id := r.URL.Query().Get("id"); id != "" {
			v, ok := rooms.Get(id)
			if !ok {
				writeJSON(w, http.StatusNotFound, ErrorData{Code: CodeRoomNotFound, Message: room.ErrRoomNotFound.Error()})
				return
			}
			writeJSON(w, http.StatusOK, v)
			return
		}
		writeJSON(w, http.StatusOK, rooms.Registry().Views())
	})
}

// HandleMetrics 输出协调层运行指标
// GET /metrics
func HandleMetrics(rooms *room.Manager, hub *Hub, metrics *Metrics) http.HandlerFunc {
	return onlyGet(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"rooms":   rooms.Stats(),
			"online":  hub.Len(),
			"metrics": metrics.Snapshot(),
		})
	})
}
