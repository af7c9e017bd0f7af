package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roach88/memento/internal/config"
	"github.com/roach88/memento/internal/store"
)

// loadConfig reads .env (outside production) and then the layered config.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	if os.Getenv(config.EnvPrefix+"PROFILE") != config.ProfileProd {
		// A missing .env is fine.
		_ = godotenv.Load()
	}

	cfg, err := config.Load(cmd.Context(), opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// setupLogging installs a text handler on stderr as the default logger.
// --verbose forces debug level.
func setupLogging(cmd *cobra.Command, cfg *config.Config, opts *RootOptions) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// openStore opens the configured database.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
