package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Queries exposes parameterized reads and writes. Obtain one from
// Store.Queries or inside Store.WithinTx.
type Queries struct {
	q querier
}

// Now returns the store clock in unix milliseconds.
func (q *Queries) Now(ctx context.Context) (int64, error) {
	var now int64
	if err := q.q.QueryRowContext(ctx, `SELECT `+nowMillisSQL).Scan(&now); err != nil {
		return 0, fmt.Errorf("read store clock: %w", err)
	}
	return now, nil
}
