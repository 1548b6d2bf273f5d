package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"karmabot/pkg/bot"
	"karmabot/pkg/config"
	"karmabot/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long:  "Connects to Telegram, MongoDB, and Redis, then processes chat events until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			os.Exit(1)
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.serve")

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		service, err := bot.New(runCtx, cfg, appLogger)
		if err != nil {
			log.Error("Failed to initialize bot", "error", err)
			os.Exit(1)
		}

		log.Info("Bot started")
		if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Bot runtime failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
