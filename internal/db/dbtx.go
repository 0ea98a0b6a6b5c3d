package db

import (
	"context"
	"database/sql"
)

// DBTX is what the work-item, hierarchy and migration repositories run their
// queries against. Both a plain connection and an open transaction satisfy
// it, so one repository type serves reads and multi-row tree edits alike.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
