package server

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config 协调服务运行配置（由 cmd 通过 viper 解码）
type Config struct {
	Addr      string      `mapstructure:"addr" validate:"required"`
	StaticDir string      `mapstructure:"static_dir"`
	Log       LogConfig   `mapstructure:"log"`
	Sweep     SweepConfig `mapstructure:"sweep"`
	WS        WSConfig    `mapstructure:"ws"`
}

// LogConfig 日志输出与滚动策略
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Console    bool   `mapstructure:"console"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gt=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// SweepConfig 空房间回收周期与阈值
type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	MaxAge   time.Duration `mapstructure:"max_age" validate:"gt=0"`
}

// WSConfig WebSocket 连接参数
type WSConfig struct {
	SendBuffer int           `mapstructure:"send_buffer" validate:"gt=0"`
	ReadLimit  int64         `mapstructure:"read_limit" validate:"gt=0"`
	PongWait   time.Duration `mapstructure:"pong_wait" validate:"gt=0"`
	WriteWait  time.Duration `mapstructure:"write_wait" validate:"gt=0"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Addr: ":3001",
		Log: LogConfig{
			File:       "gridarena.log",
			Level:      "info",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Sweep: SweepConfig{
			Interval: time.Minute,
			MaxAge:   30 * time.Minute,
		},
		WS: WSConfig{
			SendBuffer: 64,
			ReadLimit:  1 << 20, // 1MB
			PongWait:   60 * time.Second,
			WriteWait:  5 * time.Second,
		},
	}
}

// Validate 校验配置取值
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
