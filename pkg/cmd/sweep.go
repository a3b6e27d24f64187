package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/storage"
)

var (
	sweepDryRun bool

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "remove stored objects that have no file record",
		Long:  "sweep lists every stored object, removes the ones without a pending or approved record once they are older than sweep.grace_period, and reports records whose object is missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mgr, err := storage.Init(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			report, err := service.NewSweepService(service.DepsFromManager(mgr, cfg)).Run(cmd.Context(), sweepDryRun)
			if err != nil {
				return err
			}

			b, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerSweepCommands 注册巡检命令.
func registerSweepCommands() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report orphans without removing them")

	rootCmd.AddCommand(sweepCmd)
}
