package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gridarena/server"
)

func newServeCmd() *cobra.Command {
	v := newViper()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket session coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			log, err := server.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			// 优雅退出（Ctrl+C）
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, log).Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./gridarena.yaml if present)")
	flags.String("addr", "", "server listen address, e.g. :3001")
	flags.String("static-dir", "", "serve client static files from this directory")
	flags.String("log-file", "", "log file path (rotated)")
	flags.String("log-level", "", "debug | info | warn | error")
	flags.Duration("sweep-interval", 0, "interval between stale room sweeps")
	flags.Duration("room-max-age", 0, "age after which empty waiting rooms are reclaimed")

	_ = v.BindPFlag("addr", flags.Lookup("addr"))
	_ = v.BindPFlag("static_dir", flags.Lookup("static-dir"))
	_ = v.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("sweep.interval", flags.Lookup("sweep-interval"))
	_ = v.BindPFlag("sweep.max_age", flags.Lookup("room-max-age"))

	return cmd
}
