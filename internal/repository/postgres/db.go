package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql methods the repositories run on.
// Both *sql.DB and *sql.Tx satisfy it, so a repository built with a WithTx
// constructor executes inside a caller-owned transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
