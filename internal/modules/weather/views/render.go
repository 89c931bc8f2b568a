package views

import (
	"errors"
	"io"
	"io/fs"
	"text/template"

	"weatherlog/internal/modules/weather/types"
)

var weatherTmpl *template.Template

// loadTemplatesFromFS loads terminal templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	weatherTmpl, err = template.ParseFS(sub, "*.tmpl")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded terminal templates. Call during startup
// before rendering anything; if it returns an error, do not start the menu.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// RecordData is the view model for one fetched weather record.
type RecordData struct {
	Record types.WeatherRecord
}

func RenderRecord(w io.Writer, data *RecordData) error {
	if weatherTmpl == nil {
		return errors.New("record template not loaded: call views.LoadTemplates during startup")
	}
	return weatherTmpl.ExecuteTemplate(w, "record.tmpl", data)
}

// HistoryData is the view model for the recent-queries listing.
type HistoryData struct {
	Entries []types.LogEntry
}

func RenderHistory(w io.Writer, data *HistoryData) error {
	if weatherTmpl == nil {
		return errors.New("history template not loaded: call views.LoadTemplates during startup")
	}
	return weatherTmpl.ExecuteTemplate(w, "history.tmpl", data)
}
