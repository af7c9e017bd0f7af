package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/memento/internal/store"
)

// FixLabelCounts recomputes every video's label count from the target
// repeats of scored levels and of pending levels younger than
// MaxLevelTime, repairing drift left by abandoned levels. Returns how many
// videos changed.
func (e *Engine) FixLabelCounts(ctx context.Context) (int64, error) {
	start := time.Now()

	var changed int64
	err := e.store.WithinTx(ctx, func(q *store.Queries) error {
		now, err := q.Now(ctx)
		if err != nil {
			return err
		}
		changed, err = q.RecomputeLabelCounts(ctx, now-e.policy.MaxLevelTime.Milliseconds())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fix label counts: %w", err)
	}

	took := time.Since(start)
	e.rec.LabelsReconciled(changed, took)
	e.log.Info("label counts reconciled", "changed", changed, "took", took)
	return changed, nil
}

// Reconciler runs FixLabelCounts on a fixed interval.
type Reconciler struct {
	engine   *Engine
	interval time.Duration
	log      *slog.Logger
}

// NewReconciler creates a reconciler for e. interval must be positive.
func NewReconciler(e *Engine, interval time.Duration) *Reconciler {
	return &Reconciler{
		engine:   e,
		interval: interval,
		log:      e.log.With("component", "reconciler"),
	}
}

// Run reconciles once immediately and then every interval until ctx is
// cancelled. Failed passes are logged and retried on the next tick.
// Returns ctx.Err().
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.engine.FixLabelCounts(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("reconcile failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
