package types

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxCityNameLen is the maximum accepted length of a city name in runes.
const MaxCityNameLen = 100

// WeatherRecord is one weather observation as fetched from the provider.
// Records are immutable once constructed; every field is required.
type WeatherRecord struct {
	City         string    `json:"city"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  int       `json:"humidity_pct"`
	PressureHpa  int       `json:"pressure_hpa"`
	WindSpeedMS  float64   `json:"wind_speed_ms"`
	Condition    string    `json:"condition"`
	ObservedAt   time.Time `json:"observed_at"`
	RawResponse  string    `json:"-"`
}

// Validate reports the first constraint the record violates, or nil.
// A record that fails validation must never be persisted or returned
// to a caller.
func (r WeatherRecord) Validate() error {
	if strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("city must not be empty")
	}
	if r.HumidityPct < 0 || r.HumidityPct > 100 {
		return fmt.Errorf("humidity_pct out of range: %d (must be 0-100)", r.HumidityPct)
	}
	if r.PressureHpa <= 0 {
		return fmt.Errorf("pressure_hpa must be positive: %d", r.PressureHpa)
	}
	if r.WindSpeedMS < 0 {
		return fmt.Errorf("wind_speed_ms must not be negative: %f", r.WindSpeedMS)
	}
	if strings.TrimSpace(r.Condition) == "" {
		return fmt.Errorf("condition must not be empty")
	}
	if r.ObservedAt.IsZero() {
		return fmt.Errorf("observed_at must be set")
	}
	if r.RawResponse == "" {
		return fmt.Errorf("raw_response must not be empty")
	}
	return nil
}

// LogEntry is a persisted WeatherRecord together with the identifier the
// store assigned at insert time. Identifiers increase monotonically and
// are never reused.
type LogEntry struct {
	ID int64 `json:"id"`
	WeatherRecord
}

// InvalidCityError reports user input rejected by ParseCityName.
type InvalidCityError struct {
	Input  string
	Reason string
}

func (e *InvalidCityError) Error() string {
	return fmt.Sprintf("invalid city name %q: %s", e.Input, e.Reason)
}

// ParseCityName normalizes raw user input into a city name suitable for a
// provider query. It trims surrounding whitespace, rejects empty input,
// caps the length at MaxCityNameLen runes, and permits only Unicode
// letters, spaces, hyphens and apostrophes.
func ParseCityName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", &InvalidCityError{Input: raw, Reason: "empty"}
	}
	if utf8.RuneCountInString(name) > MaxCityNameLen {
		return "", &InvalidCityError{Input: raw, Reason: fmt.Sprintf("longer than %d characters", MaxCityNameLen)}
	}
	for _, r := range name {
		if !isCityRune(r) {
			return "", &InvalidCityError{Input: raw, Reason: fmt.Sprintf("character %q not allowed", r)}
		}
	}
	return name, nil
}

func isCityRune(r rune) bool {
	return unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\''
}
