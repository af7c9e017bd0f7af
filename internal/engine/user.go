package engine

import (
	"context"
	"fmt"
)

// UserInfo is what a worker sees before requesting a level.
type UserInfo struct {
	// Level is one more than the number of levels the worker has scored.
	Level int `json:"level"`
}

// GetUserInfo resolves workerID, creating the worker on first sight, and
// reports the next level number.
func (e *Engine) GetUserInfo(ctx context.Context, workerID string) (info UserInfo, err error) {
	defer func() { e.observe("user_info", err, "worker_id", workerID) }()

	if workerID == "" {
		return UserInfo{}, errUnauthenticated()
	}

	q := e.store.Queries()
	u, err := q.ResolveUser(ctx, workerID, e.policy.DefaultLives)
	if err != nil {
		return UserInfo{}, fmt.Errorf("get user info: %w", err)
	}
	if e.blocked(u) {
		return UserInfo{}, errBlocked(workerID)
	}

	scored, err := q.CountScoredLevels(ctx, u.ID)
	if err != nil {
		return UserInfo{}, fmt.Errorf("get user info: %w", err)
	}
	return UserInfo{Level: scored + 1}, nil
}
