// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yeisme/papervault/pkg/app"
	"github.com/yeisme/papervault/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "papervault",
		Short:         "PaperVault study material repository",
		Long:          "PaperVault stores uploaded PDF study materials, lets an administrator moderate them and serves approved files by branch, semester, subject and type.",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env 不存在时忽略
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
)

func serve(ctx context.Context) error {
	a, err := app.NewApp(ctx, configPath)
	if err != nil {
		return err
	}

	return a.Run()
}

// loadConfig 供一次性子命令加载配置与日志.
func loadConfig() (*configs.AppConfig, error) {
	return app.Bootstrap(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print viper debug output")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerSweepCommands()
	registerAdminCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
