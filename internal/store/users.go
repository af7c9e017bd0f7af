package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/memento/internal/model"
)

// ResolveUser returns the user for workerID, creating it with defaultLives
// if absent. Concurrent first-time calls for the same worker converge on
// one row through the UNIQUE(worker_id) constraint.
func (q *Queries) ResolveUser(ctx context.Context, workerID string, defaultLives int) (model.User, error) {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO users (worker_id, num_lives)
		VALUES (?, ?)
		ON CONFLICT(worker_id) DO NOTHING
	`, workerID, defaultLives)
	if err != nil {
		return model.User{}, fmt.Errorf("resolve user: insert: %w", err)
	}

	u, err := q.UserByWorkerID(ctx, workerID)
	if err != nil {
		return model.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

// UserByWorkerID looks up a user by external worker id.
// Returns ErrNotFound if absent.
func (q *Queries) UserByWorkerID(ctx context.Context, workerID string) (model.User, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, worker_id, num_lives FROM users WHERE worker_id = ?
	`, workerID)
	return scanUser(row)
}

// UserByID looks up a user by internal id.
// Returns ErrNotFound if absent.
func (q *Queries) UserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, worker_id, num_lives FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

// SetLives overwrites a user's lives counter.
func (q *Queries) SetLives(ctx context.Context, userID int64, numLives int) error {
	_, err := q.q.ExecContext(ctx, `UPDATE users SET num_lives = ? WHERE id = ?`, numLives, userID)
	if err != nil {
		return fmt.Errorf("set lives: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.WorkerID, &u.NumLives); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
