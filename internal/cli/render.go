package cli

import (
	"fmt"
	"io"

	"weatherlog/internal/modules/weather/service"
	"weatherlog/internal/modules/weather/types"
	"weatherlog/internal/modules/weather/views"
)

// RenderCheckResult prints the record card plus the storage outcome. A
// persist failure is flagged but never hides the fetched data.
func RenderCheckResult(w io.Writer, res service.CheckResult) error {
	if err := views.RenderRecord(w, &views.RecordData{Record: res.Record}); err != nil {
		return err
	}
	if res.PersistErr != nil {
		_, err := fmt.Fprintln(w, "Warning: this result was shown but could not be saved to the log.")
		return err
	}
	_, err := fmt.Fprintf(w, "Weather data for %s logged successfully!\n", res.Record.City)
	return err
}

// RenderHistory prints the recent-queries listing.
func RenderHistory(w io.Writer, entries []types.LogEntry) error {
	return views.RenderHistory(w, &views.HistoryData{Entries: entries})
}
