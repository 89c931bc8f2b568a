package repository

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"weatherlog/internal/modules/weather/types"
)

//go:embed sql/insert-log.sql
var insertLogSQL string

//go:embed sql/recent-history.sql
var recentHistorySQL string

// observedAtLayout is RFC3339 with a fixed-width fraction. RFC3339Nano
// trims trailing zeros, so same-second values encode at different
// lengths and the TEXT column's lexicographic ORDER BY would put older
// records first. Constant-width UTC strings sort chronologically and
// still parse as RFC3339Nano.
const observedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrWriteFailed marks an append that did not durably complete, either
// because the record violates a constraint or because the write itself
// failed. The store is left in its prior state; no partial row exists.
var ErrWriteFailed = errors.New("weather log write failed")

// LogRepository is the append-only store of weather observations.
type LogRepository interface {
	// Append durably writes one record and returns the identifier the
	// store assigned to it.
	Append(rec types.WeatherRecord) (int64, error)
	// RecentHistory returns up to limit entries, most recent first
	// (observed_at descending, ties broken by descending id). An empty
	// store yields an empty sequence, not an error.
	RecentHistory(limit int) ([]types.LogEntry, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) LogRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Append(rec types.WeatherRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	observedAt := rec.ObservedAt.UTC().Format(observedAtLayout)
	res, err := r.db.Exec(insertLogSQL,
		rec.City,
		rec.TemperatureC,
		rec.HumidityPct,
		rec.PressureHpa,
		rec.WindSpeedMS,
		rec.Condition,
		observedAt,
		rec.RawResponse,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return id, nil
}

func (r *repositoryImpl) RecentHistory(limit int) ([]types.LogEntry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("history limit must be >= 1, got %d", limit)
	}

	rows, err := r.db.Query(recentHistorySQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close history rows", "error", err)
		}
	}()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]types.LogEntry, error) {
	var out []types.LogEntry
	for rows.Next() {
		var e types.LogEntry
		var observedAt string
		err := rows.Scan(
			&e.ID,
			&e.City,
			&e.TemperatureC,
			&e.HumidityPct,
			&e.PressureHpa,
			&e.WindSpeedMS,
			&e.Condition,
			&observedAt,
			&e.RawResponse,
		)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, observedAt)
		if err != nil {
			var err2 error
			t, err2 = time.Parse(time.RFC3339, observedAt)
			if err2 != nil {
				return nil, fmt.Errorf("parse observed_at %q: RFC3339Nano: %w; RFC3339: %w", observedAt, err, err2)
			}
		}
		e.ObservedAt = t
		out = append(out, e)
	}
	return out, rows.Err()
}
