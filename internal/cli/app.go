package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/unitconv/internal/config"
	"github.com/roach88/unitconv/internal/engine"
	"github.com/roach88/unitconv/internal/history"
	"github.com/roach88/unitconv/internal/store"
)

// app bundles the services a command needs for one invocation.
type app struct {
	out     *OutputFormatter
	logger  *slog.Logger
	store   *store.Store
	engine  *engine.Engine
	history *history.Service
}

// newFormatter builds the output formatter for cmd, tagging JSON output with
// a fresh request ID.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	ids := opts.RequestIDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		TraceID:   ids.Generate(),
	}
}

// openApp loads configuration, configures logging and opens the database.
// Failures are written through the formatter and returned as reported
// ExitErrors.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := newFormatter(cmd, opts)

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		_ = out.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, &ExitError{Code: ExitCommandError, Message: "invalid configuration", Err: err, Reported: true}
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	level, err := cfg.Level()
	if err != nil {
		_ = out.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, &ExitError{Code: ExitCommandError, Message: "invalid configuration", Err: err, Reported: true}
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	logger := slog.Default().With("request_id", out.TraceID)

	storeOpts := []store.Option{store.WithLogger(logger)}
	if opts.Now != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Now))
	}

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database, storeOpts...)
	if err != nil {
		return nil, out.Fail(err)
	}

	return &app{
		out:     out,
		logger:  logger,
		store:   st,
		engine:  engine.New(st, st, engine.WithLogger(logger)),
		history: history.New(st),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
