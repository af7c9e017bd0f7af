package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/memento/internal/engine"
	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/store"
)

// UserReport summarises a worker's progress.
type UserReport struct {
	WorkerID        string                 `json:"workerId"`
	NumLives        int                    `json:"numLives"`
	Blocked         bool                   `json:"blocked"`
	Levels          int                    `json:"levels"`
	CompletedLevels []model.CompletedLevel `json:"completedLevels"`
}

// NewUserCommand creates the user command.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user <workerID>",
		Short: "Show a worker's lives and scored levels",
		Long: `Show a worker's remaining lives, level count and scored levels.

This is read-only: unlike the API it never creates the worker.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUser(cmd, rootOpts, args[0])
		},
	}
}

func runUser(cmd *cobra.Command, opts *RootOptions, workerID string) error {
	out := newFormatter(cmd, opts)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	q := st.Queries()
	u, err := q.UserByWorkerID(ctx, workerID)
	if errors.Is(err, store.ErrNotFound) {
		_ = out.Error(CodeNotFound, fmt.Sprintf("worker %q not found", workerID), nil)
		return WrapExitError(ExitFailure, "user not found", err)
	}
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read user", err)
	}

	levels, err := q.CountLevels(ctx, u.ID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count levels", err)
	}
	completed, err := q.CompletedLevels(ctx, u.ID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read completed levels", err)
	}
	if completed == nil {
		completed = []model.CompletedLevel{}
	}

	rep := UserReport{
		WorkerID:        u.WorkerID,
		NumLives:        u.NumLives,
		Blocked:         engine.IsBlocked(u.NumLives, cfg.EnableBlockUsers),
		Levels:          levels,
		CompletedLevels: completed,
	}
	return out.Success(rep, func(w io.Writer) {
		fmt.Fprintf(w, "Worker %s\n", rep.WorkerID)
		fmt.Fprintf(w, "  lives:   %d", rep.NumLives)
		if rep.Blocked {
			fmt.Fprint(w, " (blocked)")
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  levels:  %d started, %d scored\n", rep.Levels, len(rep.CompletedLevels))
		for i, c := range rep.CompletedLevels {
			fmt.Fprintf(w, "  #%-3d    score=%.3f reward=%.2f\n", i+1, c.Score, c.Reward)
		}
	})
}
