package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd 构建命令树：serve 运行协调服务，stats 查询房间统计
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gridarena",
		Short:         "Session coordinator for two-party grid-world experiments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newStatsCmd())
	return root
}

// Execute 由 main.main 调用
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
