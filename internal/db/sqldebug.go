package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// debugConnector opens sqlite3 connections whose statements log SQL
// text, arguments, elapsed time and any error at debug level.
type debugConnector struct {
	dsn    string
	logger *slog.Logger
}

// NewDebugConnector returns a driver.Connector for sql.OpenDB that logs
// every statement through the given logger. A nil logger falls back to
// slog.Default().
func NewDebugConnector(dsn string, logger *slog.Logger) driver.Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &debugConnector{dsn: dsn, logger: logger}
}

// Connect implements driver.Connector.
func (c *debugConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &debugConn{conn: conn, logger: c.logger}, nil
}

// Driver implements driver.Connector.
func (c *debugConnector) Driver() driver.Driver {
	return &debugDriver{}
}

// debugDriver only satisfies Connector.Driver(); open through
// sql.OpenDB(NewDebugConnector(...)).
type debugDriver struct{}

func (d *debugDriver) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("sqlite3-debug: use sql.OpenDB(NewDebugConnector(...)) instead of sql.Open")
}

// debugConn wraps driver.Conn so prepared statements get logged.
type debugConn struct {
	conn   driver.Conn
	logger *slog.Logger
}

// Prepare implements driver.Conn.
func (c *debugConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &debugStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *debugConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	prep, ok := c.conn.(driver.ConnPrepareContext)
	if !ok {
		return c.Prepare(query)
	}
	stmt, err := prep.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &debugStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

// Close implements driver.Conn.
func (c *debugConn) Close() error {
	return c.conn.Close()
}

// Begin implements driver.Conn.
func (c *debugConn) Begin() (driver.Tx, error) {
	//nolint:staticcheck // SA1019: needed when the underlying conn lacks ConnBeginTx
	return c.conn.Begin()
}

// BeginTx implements driver.ConnBeginTx.
func (c *debugConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019: fallback when the underlying conn lacks ConnBeginTx
	return c.conn.Begin()
}

// debugStmt wraps driver.Stmt to log Exec/Query after they run.
type debugStmt struct {
	stmt   driver.Stmt
	query  string
	logger *slog.Logger
}

// Close implements driver.Stmt.
func (s *debugStmt) Close() error {
	return s.stmt.Close()
}

// NumInput implements driver.Stmt.
func (s *debugStmt) NumInput() int {
	return s.stmt.NumInput()
}

// Exec implements driver.Stmt.
func (s *debugStmt) Exec(args []driver.Value) (driver.Result, error) {
	start := time.Now()
	//nolint:staticcheck // SA1019: needed when the underlying stmt lacks StmtExecContext
	res, err := s.stmt.Exec(args)
	s.log("exec", valuesText(args), start, err)
	return res, err
}

// ExecContext implements driver.StmtExecContext.
func (s *debugStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	execCtx, ok := s.stmt.(driver.StmtExecContext)
	if !ok {
		return s.Exec(namedToValues(args))
	}
	start := time.Now()
	res, err := execCtx.ExecContext(ctx, args)
	s.log("exec", namedText(args), start, err)
	return res, err
}

// Query implements driver.Stmt.
func (s *debugStmt) Query(args []driver.Value) (driver.Rows, error) {
	start := time.Now()
	//nolint:staticcheck // SA1019: needed when the underlying stmt lacks StmtQueryContext
	rows, err := s.stmt.Query(args)
	s.log("query", valuesText(args), start, err)
	return rows, err
}

// QueryContext implements driver.StmtQueryContext.
func (s *debugStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	queryCtx, ok := s.stmt.(driver.StmtQueryContext)
	if !ok {
		return s.Query(namedToValues(args))
	}
	start := time.Now()
	rows, err := queryCtx.QueryContext(ctx, args)
	s.log("query", namedText(args), start, err)
	return rows, err
}

func (s *debugStmt) log(op string, args []string, start time.Time, err error) {
	attrs := []any{
		"op", op,
		"sql", s.query,
		"args", args,
		"elapsed", time.Since(start),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.logger.Debug("sql", attrs...)
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}

func namedText(args []driver.NamedValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			out[i] = a.Name + "=" + argText(a.Value)
		} else {
			out[i] = argText(a.Value)
		}
	}
	return out
}

func valuesText(args []driver.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = argText(a)
	}
	return out
}

func argText(v any) string {
	if v == nil {
		return "NULL"
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
