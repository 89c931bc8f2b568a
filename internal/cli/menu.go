package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"weatherlog/internal/modules/weather/provider"
	"weatherlog/internal/modules/weather/service"
	"weatherlog/internal/modules/weather/types"
)

// WeatherService is the surface of the weather module the menu drives.
type WeatherService interface {
	CheckWeather(ctx context.Context, rawCity string) (service.CheckResult, error)
	ViewHistory(limit int) ([]types.LogEntry, error)
}

// Menu is the interactive loop. It reads choices from in and writes all
// user-facing output to out, so tests can drive it with buffers.
type Menu struct {
	svc          WeatherService
	in           *bufio.Scanner
	out          io.Writer
	historyLimit int
}

func NewMenu(svc WeatherService, in io.Reader, out io.Writer, historyLimit int) *Menu {
	return &Menu{
		svc:          svc,
		in:           bufio.NewScanner(in),
		out:          out,
		historyLimit: historyLimit,
	}
}

// Run loops until the user exits or input ends. EOF is a clean exit; a
// read failure is returned.
func (m *Menu) Run(ctx context.Context) error {
	fmt.Fprintln(m.out, "WELCOME TO THE WEATHER LOGGER")
	fmt.Fprintln(m.out, strings.Repeat("=", 60))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "Options:")
		fmt.Fprintln(m.out, "1. Get weather for a city")
		fmt.Fprintln(m.out, "2. View recent logs")
		fmt.Fprintln(m.out, "3. Exit")
		fmt.Fprintln(m.out)
		fmt.Fprint(m.out, "Enter your choice (1-3): ")

		choice, ok := m.readLine()
		if !ok {
			fmt.Fprintln(m.out)
			return m.in.Err()
		}

		switch strings.TrimSpace(choice) {
		case "1":
			m.checkWeather(ctx)
		case "2":
			m.viewHistory()
		case "3":
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please enter 1, 2, or 3.")
		}
	}
}

func (m *Menu) readLine() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

func (m *Menu) checkWeather(ctx context.Context) {
	fmt.Fprint(m.out, "Enter city name: ")
	raw, ok := m.readLine()
	if !ok {
		fmt.Fprintln(m.out)
		return
	}

	res, err := m.svc.CheckWeather(ctx, raw)
	if err != nil {
		fmt.Fprintln(m.out, CheckErrorMessage(err))
		return
	}

	if err := RenderCheckResult(m.out, res); err != nil {
		slog.Error("render weather record", "error", err)
	}
}

func (m *Menu) viewHistory() {
	entries, err := m.svc.ViewHistory(m.historyLimit)
	if err != nil {
		slog.Error("load history", "error", err)
		fmt.Fprintln(m.out, "Could not read the weather log.")
		return
	}

	fmt.Fprintln(m.out)
	if err := RenderHistory(m.out, entries); err != nil {
		slog.Error("render history", "error", err)
	}
}

// CheckErrorMessage maps a CheckWeather failure to the message shown to
// the user. Each error kind gets a distinct, actionable line.
func CheckErrorMessage(err error) string {
	var invalid *types.InvalidCityError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("Please enter a valid city name: %s.", invalid.Reason)
	}
	var unknown *provider.UnknownCityError
	if errors.As(err, &unknown) {
		return fmt.Sprintf("City %q was not found. Check the spelling and try again.", unknown.City)
	}
	switch {
	case errors.Is(err, provider.ErrInvalidCredential):
		return "The weather service rejected the configured API key. Update OPENWEATHER_API_KEY and restart."
	case errors.Is(err, provider.ErrMalformedResponse):
		return "The weather service sent a response this program does not understand."
	case errors.Is(err, provider.ErrNetwork):
		return "Could not reach the weather service. Check your connection and try again."
	}
	return fmt.Sprintf("Error: %v", err)
}
