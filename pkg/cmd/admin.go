package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/papervault/pkg/auth"
)

var (
	adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Administrator credential helpers",
	}

	hashPasswordCmd = &cobra.Command{
		Use:   "hash-password <password>",
		Short: "print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)

			return nil
		},
	}
)

// registerAdminCommands 注册管理员相关命令.
func registerAdminCommands() {
	adminCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(adminCmd)
}
