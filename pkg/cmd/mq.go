package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/papervault/pkg/internal/storage/mq"
	"github.com/yeisme/papervault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "moderation event stream commands",
		Aliases: []string{"messagequeue", "events"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list the compiled-in mq backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Registered mq types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(out, "   - "+string(t))
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list the topics papervault publishes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range queue.AllTopics() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTopicsCmd)
}
