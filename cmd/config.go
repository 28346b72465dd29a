package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gridarena/server"
)

const envPrefix = "GRIDARENA"

// newViper 注册默认值与环境变量映射：log.level ↔ GRIDARENA_LOG_LEVEL
func newViper() *viper.Viper {
	v := viper.New()
	def := server.DefaultConfig()
	v.SetDefault("addr", def.Addr)
	v.SetDefault("static_dir", def.StaticDir)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.console", def.Log.Console)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
	v.SetDefault("sweep.interval", def.Sweep.Interval)
	v.SetDefault("sweep.max_age", def.Sweep.MaxAge)
	v.SetDefault("ws.send_buffer", def.WS.SendBuffer)
	v.SetDefault("ws.read_limit", def.WS.ReadLimit)
	v.SetDefault("ws.pong_wait", def.WS.PongWait)
	v.SetDefault("ws.write_wait", def.WS.WriteWait)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig 依次合并：默认值 < 配置文件 < .env/环境变量 < 命令行参数
func loadConfig(v *viper.Viper, cfgFile string) (server.Config, error) {
	// .env 可选，缺失时忽略
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return server.Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("gridarena")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return server.Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg server.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return server.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return server.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
