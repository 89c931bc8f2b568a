package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	// APIKey authenticates against OpenWeatherMap. The only required
	// setting; everything else has a default.
	APIKey      string        `validate:"required"`
	BaseURL     string        `validate:"required,url"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	SQLiteDriver          string `validate:"required"`
	SQLiteDSN             string
	SQLitePath            string `validate:"required"`
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration

	HistoryLimit int `validate:"min=1"`
	SQLDebug     bool
}

func LoadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))

	baseURL := strings.TrimSpace(os.Getenv("WEATHER_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/weather"
	}

	httpTimeoutStr := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT"))
	if httpTimeoutStr == "" {
		httpTimeoutStr = "10s"
	}
	httpTimeout, err := time.ParseDuration(httpTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", httpTimeoutStr, err)
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "weather_data.db"
	}

	maxOpenConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS"))
	if maxOpenConnsStr == "" {
		maxOpenConnsStr = "1"
	}
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := strings.TrimSpace(os.Getenv("DB_MAX_IDLE_CONNS"))
	if maxIdleConnsStr == "" {
		maxIdleConnsStr = "1"
	}
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	historyLimitStr := strings.TrimSpace(os.Getenv("HISTORY_LIMIT"))
	if historyLimitStr == "" {
		historyLimitStr = "5"
	}
	historyLimit, err := strconv.Atoi(historyLimitStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid HISTORY_LIMIT %q: %w", historyLimitStr, err)
	}

	sqlDebugStr := strings.TrimSpace(os.Getenv("SQL_DEBUG"))
	if sqlDebugStr == "" {
		sqlDebugStr = "false"
	}
	sqlDebug, err := strconv.ParseBool(sqlDebugStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SQL_DEBUG %q: %w", sqlDebugStr, err)
	}

	cfg := Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		APIKey:                apiKey,
		BaseURL:               baseURL,
		HTTPTimeout:           httpTimeout,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		HistoryLimit:          historyLimit,
		SQLDebug:              sqlDebug,
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
