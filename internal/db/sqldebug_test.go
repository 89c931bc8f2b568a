package db

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu    sync.Mutex
	attrs []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]slog.Value)
	m["msg"] = slog.StringValue(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.attrs = append(h.attrs, m)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(name string) slog.Handler { return h }

func (h *captureHandler) recordsFor(t *testing.T, msg string) []map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.attrs {
		if m["msg"].String() == msg {
			out = append(out, m)
		}
	}
	return out
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs = nil
}

func newDebugDB(t *testing.T, logger *slog.Logger) *sql.DB {
	t.Helper()
	db := sql.OpenDB(NewDebugConnector(":memory:", logger))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDebugConnector_nilLoggerUsesDefault(t *testing.T) {
	conn := NewDebugConnector(":memory:", nil)
	if conn == nil {
		t.Fatal("conn is nil")
	}
	c := conn.(*debugConnector)
	if c.logger == nil {
		t.Fatal("nil logger was not replaced with the default")
	}
}

func TestDebugConnector_ExecAndQueryLogged(t *testing.T) {
	handler := &captureHandler{}
	db := newDebugDB(t, slog.New(handler))

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected at least one sql log record for Exec")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if got["sql"].String() != `CREATE TABLE t (id INTEGER PRIMARY KEY)` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
	if _, ok := got["elapsed"]; !ok {
		t.Error("expected elapsed attribute in log")
	}

	handler.reset()
	row := db.QueryRow(`SELECT 1`)
	var one int
	if err := row.Scan(&one); err != nil {
		t.Fatalf("query row: %v", err)
	}
	recs = handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log record for QueryRow")
	}
	got = recs[len(recs)-1]
	if got["op"].String() != "query" {
		t.Errorf("op: got %q, want query", got["op"].String())
	}
	if got["sql"].String() != `SELECT 1` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
}

func TestDebugConnector_ArgsLogged(t *testing.T) {
	handler := &captureHandler{}
	db := newDebugDB(t, slog.New(handler))

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO t (id, name) VALUES (?, ?)`, 1, "alice"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for Exec with args")
	}
	got := recs[len(recs)-1]
	args, ok := got["args"]
	if !ok {
		t.Fatal("expected args attribute in log")
	}
	if !strings.Contains(args.String(), "alice") {
		t.Errorf("args: got %q, want rendering of \"alice\"", args.String())
	}
}

func TestDebugConnector_ErrorLogged(t *testing.T) {
	handler := &captureHandler{}
	db := newDebugDB(t, slog.New(handler))

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t (id) VALUES (?)`, 1); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	handler.reset()

	if _, err := db.Exec(`INSERT INTO t (id) VALUES (?)`, 1); err == nil {
		t.Fatal("duplicate insert succeeded; want constraint error")
	}
	recs := handler.recordsFor(t, "sql")
	if len(recs) == 0 {
		t.Fatal("expected sql log for failing Exec")
	}
	got := recs[len(recs)-1]
	if _, ok := got["error"]; !ok {
		t.Error("expected error attribute on failing statement log")
	}
}

func TestDebugConnector_PingSucceeds(t *testing.T) {
	db := newDebugDB(t, slog.Default())
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
