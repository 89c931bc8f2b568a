// cmd/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"weatherlog/internal/app"
	"weatherlog/internal/config"
	"weatherlog/internal/logging"
)

const (
	appName = "weatherlog"
	// Default version is "dev" if not set with -ldflags "-X main.version=..."
	version = "dev"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "weatherlog",
		Short: "Check city weather and keep a local log of every query",
		Long: "weatherlog fetches current conditions from OpenWeatherMap, appends every\n" +
			"successful query to a local SQLite log and replays recent queries on demand.\n" +
			"Run without arguments for the interactive menu.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(ctx, cfg)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <city>",
		Short: "Fetch and log current weather for one city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunCheck(ctx, cfg, args[0])
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent logged queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			return app.RunHistory(cfg, limit)
		},
	}
	historyCmd.Flags().IntP("limit", "n", cfg.HistoryLimit, "number of entries to show")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunMigrate(cfg)
		},
	}

	rootCmd.AddCommand(checkCmd, historyCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
