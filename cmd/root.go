package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "karmabot",
	Short: "Telegram group rating and statistics bot",
	Long:  "KarmaBot lets group members vote on each other's messages, keeps per-user message statistics, and publishes a pinned leaderboard.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
