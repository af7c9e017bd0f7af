package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/memento/internal/engine"
)

// ReconcileResult reports a reconcile run.
type ReconcileResult struct {
	Changed int64 `json:"changed"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute video label counts once",
		Long: `Recompute every video's label count from the target repeats of
scored levels and of pending levels that have not yet expired.

The server does this periodically; run it by hand after restoring a
database or changing max_level_time_sec.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts)
		},
	}
}

func runReconcile(cmd *cobra.Command, opts *RootOptions) error {
	out := newFormatter(cmd, opts)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := setupLogging(cmd, cfg, opts)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	eng := engine.New(st, cfg.Policy(), engine.WithLogger(logger))
	changed, err := eng.FixLabelCounts(cmd.Context())
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "reconcile failed", err)
	}

	res := ReconcileResult{Changed: changed}
	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Corrected %d label counts\n", res.Changed)
	})
}
