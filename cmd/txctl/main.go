package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "txctl",
		Short:        "Operator tooling for the transaction pipeline",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			loaded, err := config.Load()
			if err != nil {
				return err
			}

			cfg = loaded
			logger = logging.New(cfg.Log.Level, cfg.Log.Format)

			return nil
		},
	}

	rootCmd.AddCommand(topicsCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
