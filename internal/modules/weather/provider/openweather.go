package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"weatherlog/internal/modules/weather/types"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	// ErrNetwork marks transport failures, timeouts and unexpected
	// provider statuses. Transient; the caller may try again.
	ErrNetwork = errors.New("weather provider unreachable")
	// ErrInvalidCredential marks a rejected API key. Retrying without a
	// configuration change is pointless.
	ErrInvalidCredential = errors.New("weather provider rejected the API key")
	// ErrMalformedResponse marks a reply that could not be parsed into a
	// complete weather record.
	ErrMalformedResponse = errors.New("weather provider returned a malformed response")
)

// UnknownCityError reports that the provider has no data for the
// requested city.
type UnknownCityError struct {
	City string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city %q", e.City)
}

// Provider fetches current conditions for a city. Implementations make
// exactly one upstream call per invocation and keep no state between
// calls.
type Provider interface {
	Fetch(ctx context.Context, city string) (types.WeatherRecord, error)
}

// OpenWeather is the OpenWeatherMap implementation of Provider.
type OpenWeather struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewOpenWeather(client *http.Client, apiKey, baseURL string) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenWeather{client: client, apiKey: apiKey, baseURL: baseURL}
}

// Fetch performs one GET against the current-weather endpoint with
// metric units and maps the outcome onto the package error kinds. On
// success the returned record carries the response body verbatim and a
// receipt timestamp in UTC.
func (p *OpenWeather) Fetch(ctx context.Context, city string) (types.WeatherRecord, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", p.apiKey)
	query.Set("units", "metric")

	reqURL := fmt.Sprintf("%s?%s", p.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.WeatherRecord{}, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return types.WeatherRecord{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	observedAt := time.Now().UTC()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.WeatherRecord{}, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.WeatherRecord{}, fmt.Errorf("%w (status %d): %s", ErrInvalidCredential, resp.StatusCode, apiMessage(body))
	case http.StatusNotFound:
		return types.WeatherRecord{}, &UnknownCityError{City: city}
	}
	if resp.StatusCode/100 != 2 {
		return types.WeatherRecord{}, fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, apiMessage(body))
	}

	return parseCurrentWeather(body, city, observedAt)
}

type currentWeatherPayload struct {
	Name string `json:"name"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
		Pressure *int     `json:"pressure"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// parseCurrentWeather builds a record from a success body. Pointer
// fields distinguish absent values from zero values; a reply missing
// any required field is malformed, never defaulted.
func parseCurrentWeather(body []byte, requestedCity string, observedAt time.Time) (types.WeatherRecord, error) {
	var payload currentWeatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return types.WeatherRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	switch {
	case payload.Main == nil || payload.Main.Temp == nil:
		return types.WeatherRecord{}, fmt.Errorf("%w: missing main.temp", ErrMalformedResponse)
	case payload.Main.Humidity == nil:
		return types.WeatherRecord{}, fmt.Errorf("%w: missing main.humidity", ErrMalformedResponse)
	case payload.Main.Pressure == nil:
		return types.WeatherRecord{}, fmt.Errorf("%w: missing main.pressure", ErrMalformedResponse)
	case payload.Wind == nil || payload.Wind.Speed == nil:
		return types.WeatherRecord{}, fmt.Errorf("%w: missing wind.speed", ErrMalformedResponse)
	case len(payload.Weather) == 0 || payload.Weather[0].Description == "":
		return types.WeatherRecord{}, fmt.Errorf("%w: missing weather description", ErrMalformedResponse)
	}

	// The provider echoes a resolved city name; fall back to the
	// requested one if it is absent.
	city := payload.Name
	if city == "" {
		city = requestedCity
	}

	rec := types.WeatherRecord{
		City:         city,
		TemperatureC: *payload.Main.Temp,
		HumidityPct:  *payload.Main.Humidity,
		PressureHpa:  *payload.Main.Pressure,
		WindSpeedMS:  *payload.Wind.Speed,
		Condition:    payload.Weather[0].Description,
		ObservedAt:   observedAt,
		RawResponse:  string(body),
	}
	if err := rec.Validate(); err != nil {
		return types.WeatherRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return rec, nil
}

// apiMessage extracts the message field OpenWeatherMap error bodies
// carry. The accompanying cod field switches between number and string
// across endpoints, so only the message is read.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return "no detail"
	}
	return payload.Message
}
