package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"weatherlog/internal/cli"
	"weatherlog/internal/config"
	"weatherlog/internal/db"
	"weatherlog/internal/migrate"
	weather "weatherlog/internal/modules/weather"
	"weatherlog/internal/modules/weather/service"
	weatherviews "weatherlog/internal/modules/weather/views"
)

// withService opens the store, applies migrations, loads templates and
// hands a fully wired weather service to fn. The store is closed on the
// way out.
func withService(cfg config.Config, fn func(*service.Service) error) error {
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	if err := weatherviews.LoadTemplates(); err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	return fn(weather.NewFeature(dbConn, client, cfg.APIKey, cfg.BaseURL))
}

// Run starts the interactive menu.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"baseURL", cfg.BaseURL,
		"httpTimeout", cfg.HTTPTimeout,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"historyLimit", cfg.HistoryLimit,
		"sqlDebug", cfg.SQLDebug,
	)

	return withService(cfg, func(svc *service.Service) error {
		menu := cli.NewMenu(svc, os.Stdin, os.Stdout, cfg.HistoryLimit)
		return menu.Run(ctx)
	})
}

// RunCheck performs a single weather check and exits. The friendly
// message goes to stdout; the error is still returned so the process
// exits nonzero.
func RunCheck(ctx context.Context, cfg config.Config, rawCity string) error {
	return withService(cfg, func(svc *service.Service) error {
		res, err := svc.CheckWeather(ctx, rawCity)
		if err != nil {
			fmt.Println(cli.CheckErrorMessage(err))
			return err
		}
		return cli.RenderCheckResult(os.Stdout, res)
	})
}

// RunHistory prints the limit most recent logged queries and exits.
func RunHistory(cfg config.Config, limit int) error {
	return withService(cfg, func(svc *service.Service) error {
		entries, err := svc.ViewHistory(limit)
		if err != nil {
			return err
		}
		return cli.RenderHistory(os.Stdout, entries)
	})
}

// RunMigrate applies pending schema migrations and exits. Useful for
// preparing the database file ahead of first use or after an upgrade.
func RunMigrate(cfg config.Config) error {
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	fmt.Println("migrations applied")
	return nil
}
