package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gridarena/room"
)

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)
	req.NoError(DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Log.Level = "verbose"
	req.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.Sweep.Interval = 0
	req.Error(cfg.Validate())

	cfg = DefaultConfig()
	cfg.Addr = ""
	req.Error(cfg.Validate())
}

func TestNewLogger_WritesToFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "gridarena.log")
	cfg := DefaultConfig().Log
	cfg.File = path
	cfg.Console = false

	log, err := NewLogger(cfg)
	req.NoError(err)
	log.Infow("room created", "room", "r-1")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	req.NoError(err)
	req.Contains(string(b), "room created")
	req.Contains(string(b), "INFO")

	cfg.Level = "loud"
	_, err = NewLogger(cfg)
	req.Error(err)
}

func TestSweeper_ReclaimsOrphanRooms(t *testing.T) {
	req := require.New(t)
	var (
		mu  sync.Mutex
		now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	reg := room.NewRegistry(room.WithClock(clock))
	mgr := room.NewManager(reg)
	metrics := &Metrics{}
	sw := NewSweeper(mgr, SweepConfig{Interval: time.Hour, MaxAge: 30 * time.Minute}, zap.NewNop().Sugar(), metrics)

	orphan := reg.Create(room.ModeHumanHuman, room.Experiment2P2G)
	req.Zero(sw.SweepOnce())

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()

	req.Equal(1, sw.SweepOnce())
	_, ok := reg.Get(orphan.ID)
	req.False(ok)
	req.EqualValues(1, metrics.RoomsSwept)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("sweeper did not stop")
	}
}
