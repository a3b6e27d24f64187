package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/papervault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "catalog cache store commands",
		Aliases: []string{"keyvalue", "cache"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list the compiled-in kv backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(out, "   - "+string(t))
			}
		},
	}

	kvFlushCmd = &cobra.Command{
		Use:   "flush",
		Short: "drop every cached catalog query",
		Long:  "flush connects to the configured kv backend and deletes all keys under cache.prefix, forcing the next catalog request to hit the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := kv.New(cmd.Context(), cfg.KV)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := kv.DeletePrefix(cmd.Context(), client.KVStore, cfg.Cache.Prefix)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "flushed %d keys with prefix %q from %s\n", n, cfg.Cache.Prefix, client.Type)

			return nil
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd, kvFlushCmd)
}
