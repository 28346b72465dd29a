package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Precedence(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "gridarena.yaml")
	req.NoError(os.WriteFile(file, []byte("addr: \":4000\"\nlog:\n  level: debug\nsweep:\n  max_age: 10m\n"), 0o600))
	t.Setenv("GRIDARENA_LOG_LEVEL", "warn")

	cmd := newServeCmd()
	req.NoError(cmd.Flags().Set("addr", ":5000"))
	v := newViper()
	req.NoError(v.BindPFlag("addr", cmd.Flags().Lookup("addr")))

	cfg, err := loadConfig(v, file)

	req.NoError(err)
	// 命令行 > 环境变量 > 配置文件 > 默认值
	req.Equal(":5000", cfg.Addr)
	req.Equal("warn", cfg.Log.Level)
	req.Equal(10*time.Minute, cfg.Sweep.MaxAge)
	req.Equal(time.Minute, cfg.Sweep.Interval)
	req.Equal(64, cfg.WS.SendBuffer)
}

func TestLoadConfig_Invalid(t *testing.T) {
	req := require.New(t)
	t.Setenv("GRIDARENA_LOG_LEVEL", "chatty")

	_, err := loadConfig(newViper(), "")

	req.Error(err)
	req.Contains(err.Error(), "invalid config")
}

func TestStatsCmd_RendersTable(t *testing.T) {
	req := require.New(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"totalRooms":3,"activeRooms":1,"waitingRooms":2,"totalPlayers":4}`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"stats", "--server", ts.URL})

	req.NoError(root.Execute())
	req.Contains(out.String(), "METRIC")
	req.Contains(out.String(), "total rooms")
	req.Contains(out.String(), "players")
	req.Contains(out.String(), "4")
}

func TestStatsCmd_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"stats", "--server", ts.URL})

	require.Error(t, root.Execute())
}
