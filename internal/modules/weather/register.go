package weather

import (
	"database/sql"
	"net/http"

	"weatherlog/internal/modules/weather/provider"
	"weatherlog/internal/modules/weather/repository"
	"weatherlog/internal/modules/weather/service"
)

// NewFeature wires the weather module: the SQLite-backed log repository
// and the OpenWeatherMap provider behind one service.
func NewFeature(db *sql.DB, client *http.Client, apiKey, baseURL string) *service.Service {
	logRepository := repository.NewRepository(db)
	openWeather := provider.NewOpenWeather(client, apiKey, baseURL)
	return service.NewService(openWeather, logRepository)
}
