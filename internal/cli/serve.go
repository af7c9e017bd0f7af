package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/memento/internal/engine"
	"github.com/roach88/memento/internal/httpapi"
	"github.com/roach88/memento/internal/metrics"
	"github.com/roach88/memento/internal/sequence"
	"github.com/roach88/memento/internal/uilog"
)

const shutdownTimeout = 30 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// OnListen is called with the bound address once the server accepts
	// connections (for testing).
	OnListen func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the experiment API over HTTP.

The server opens (or creates) the SQLite database, loads the level
templates, periodically reconciles video label counts and shuts down
gracefully on SIGINT or SIGTERM.

Example:
  memento serve --config ./memento.yaml
  MEMENTO_PROFILE=dev memento serve --addr :9000 --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	logger := setupLogging(cmd, cfg, opts.RootOptions)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	loader := sequence.NewLoader(cfg.TemplateDir, cfg.UseShortSequence, cfg.TemplateCacheTTL())
	templates, err := loader.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load templates", err)
	}
	logger.Info("templates loaded", "dir", loader.Dir(), "count", len(templates))

	sink, err := uilog.Open(cfg.UILogPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ui log", err)
	}
	defer sink.Close()

	m := metrics.NewManager()
	eng := engine.New(st, cfg.Policy(), engine.WithLogger(logger), engine.WithRecorder(m))
	api := httpapi.New(eng, loader,
		httpapi.WithUILog(sink),
		httpapi.WithHealth(st),
		httpapi.WithMetrics(m),
		httpapi.WithLogger(logger),
		httpapi.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if interval := cfg.ReconcileInterval(); interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = engine.NewReconciler(eng, interval).Run(ctx)
		}()
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		stop()
		wg.Wait()
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	logger.Info("server listening", "addr", addr, "profile", cfg.Profile, "db", cfg.DBPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
	if opts.OnListen != nil {
		opts.OnListen(addr)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining requests")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = WrapExitError(ExitFailure, "server error", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = WrapExitError(ExitFailure, "forced shutdown", err)
	}
	wg.Wait()

	if runErr == nil {
		logger.Info("server stopped cleanly")
	}
	return runErr
}
