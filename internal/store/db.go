// Package store defines the persistence contracts for users, tasks and
// analytics, plus the error taxonomy their implementations share.
package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the stores need. Both *sql.DB and
// *sql.Tx satisfy it, so the same store runs against a pooled
// connection in production and a rolled-back transaction in tests.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
