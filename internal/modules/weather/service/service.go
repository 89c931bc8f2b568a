package service

import (
	"context"
	"log/slog"

	"weatherlog/internal/modules/weather/provider"
	"weatherlog/internal/modules/weather/repository"
	"weatherlog/internal/modules/weather/types"
)

// CheckResult is the outcome of a weather check. Record and ID are set
// once a record was fetched; a non-nil PersistErr means the record was
// shown but not stored.
type CheckResult struct {
	Record     types.WeatherRecord
	ID         int64
	PersistErr error
}

// Service coordinates one weather check: validate input, fetch, append
// to the log. It holds no per-call state and never retries on its own.
type Service struct {
	provider   provider.Provider
	repository repository.LogRepository
}

func NewService(provider provider.Provider, repository repository.LogRepository) *Service {
	return &Service{provider: provider, repository: repository}
}

// CheckWeather validates the raw city input, fetches current conditions
// and appends the record to the log. Validation and fetch failures are
// terminal and returned as the error. A storage failure is carried in
// CheckResult.PersistErr instead, so the fetched record still reaches
// the caller.
func (s *Service) CheckWeather(ctx context.Context, rawCity string) (CheckResult, error) {
	city, err := types.ParseCityName(rawCity)
	if err != nil {
		return CheckResult{}, err
	}

	slog.Debug("fetching current weather", "city", city)
	rec, err := s.provider.Fetch(ctx, city)
	if err != nil {
		return CheckResult{}, err
	}

	id, err := s.repository.Append(rec)
	if err != nil {
		slog.Error("failed to append weather record", "city", rec.City, "error", err)
		return CheckResult{Record: rec, PersistErr: err}, nil
	}

	slog.Debug("stored weather record", "city", rec.City, "id", id)
	return CheckResult{Record: rec, ID: id}, nil
}

// ViewHistory returns up to limit stored entries, most recent first.
func (s *Service) ViewHistory(limit int) ([]types.LogEntry, error) {
	return s.repository.RecentHistory(limit)
}
