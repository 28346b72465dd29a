package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gridarena/room"
)

// Server 组装注册表、路由、WebSocket 接入与 HTTP 接口。
// 每个进程实例化一次，所有状态都挂在实例上。
type Server struct {
	cfg     Config
	log     *zap.SugaredLogger
	metrics *Metrics
	rooms   *room.Manager
	hub     *Hub
	router  *Router
	sweeper *Sweeper
	http    *http.Server
}

func New(cfg Config, log *zap.SugaredLogger) *Server {
	metrics := &Metrics{}
	rooms := room.NewManager(room.NewRegistry())
	hub := NewHub(cfg.WS, log, metrics)
	router := NewRouter(rooms, hub, log, metrics)

	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		rooms:   rooms,
		hub:     hub,
		router:  router,
		sweeper: NewSweeper(rooms, cfg.Sweep, log, metrics),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 路由表
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.Handler(s.router))
	mux.HandleFunc("/health", HandleHealth(time.Now))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/rooms", HandleStats(s.rooms))
	mux.HandleFunc("/admin/rooms", HandleAdminRooms(s.rooms))
	mux.HandleFunc("/metrics", HandleMetrics(s.rooms, s.hub, s.metrics))
	if s.cfg.StaticDir != "" {
		// 前后端同服务部署：将 / 映射到客户端静态资源
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}

// Rooms 生命周期管理器
func (s *Server) Rooms() *room.Manager { return s.rooms }

// Run 启动 HTTP 服务与清理任务，ctx 结束后优雅退出
func (s *Server) Run(ctx context.Context) error {
	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.sweeper.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("gridarena listening on %s", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	err := s.http.Shutdown(shutdownCtx)
	s.hub.CloseAll()
	return err
}
