package engine

import (
	"context"
	"fmt"
)

// SubmitLevel records the total time a worker spent on a level and their
// free-text feedback. It may be called before or after the level is scored.
func (e *Engine) SubmitLevel(ctx context.Context, levelID, durationMsec int64, feedback string) (err error) {
	defer func() { e.observe("submit", err, "level_id", levelID) }()

	ok, err := e.store.Queries().SubmitLevel(ctx, levelID, durationMsec, feedback)
	if err != nil {
		return fmt.Errorf("submit level: %w", err)
	}
	if !ok {
		return errInvalidResults("", "no such level")
	}
	return nil
}
