package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gridarena/room"
)

// Sweeper 周期性回收无人且长时间等待的房间。
// 正常流程中最后一人离开即删除房间，这里只兜底异常残留。
type Sweeper struct {
	rooms    *room.Manager
	interval time.Duration
	maxAge   time.Duration
	log      *zap.SugaredLogger
	metrics  *Metrics
}

func NewSweeper(rooms *room.Manager, cfg SweepConfig, log *zap.SugaredLogger, metrics *Metrics) *Sweeper {
	return &Sweeper{
		rooms:    rooms,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		log:      log,
		metrics:  metrics,
	}
}

// Run 阻塞直到 ctx 结束
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce 执行一次回收，返回回收数量
func (s *Sweeper) SweepOnce() int {
	n := s.rooms.SweepStale(s.maxAge)
	if n > 0 {
		s.metrics.AddRoomsSwept(n)
		s.log.Infow("stale rooms swept", "count", n)
	}
	return n
}
