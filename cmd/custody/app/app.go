// Package app provides the application context and dependency management
// for the custody CLI: configuration, logging and the lazily built engine.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/custody"
	"github.com/agentstation/custody/internal/appcontext"
	"github.com/agentstation/custody/internal/store"
	"github.com/agentstation/custody/pkg/errors"
)

// App represents the custody application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Engine instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	engine *custody.Engine
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information and the
// configuration found in the default locations.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Engine returns the engine, creating it from the configuration on first use.
func (a *App) Engine() (*custody.Engine, error) {
	a.mu.RLock()
	if a.engine != nil {
		e := a.engine
		a.mu.RUnlock()
		return e, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil {
		return a.engine, nil
	}

	e, err := custody.New(a.engineOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "engine", "", err)
	}
	a.engine = e
	return e, nil
}

// Archive opens the archive at the configured store path.
func (a *App) Archive(ctx context.Context) (*store.Archive, error) {
	return store.OpenArchive(ctx, a.config.StorePath)
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutting down")
	return nil
}

// engineOptions builds engine options from the configuration.
func (a *App) engineOptions() []custody.Option {
	c := a.config
	opts := []custody.Option{custody.WithLogger(a.logger)}

	if c.PipelineVersion != "" {
		opts = append(opts, custody.WithVersion(c.PipelineVersion))
	}
	if len(c.Transforms) > 0 {
		opts = append(opts, custody.WithTransforms(c.Transforms...))
	}
	if c.Concurrency > 0 {
		opts = append(opts, custody.WithConcurrency(c.Concurrency))
	}
	if c.MergeStrategy != "" {
		opts = append(opts, custody.WithMergeStrategy(c.MergeStrategy))
	}
	if c.StaffID != "" {
		opts = append(opts, custody.WithStaffID(c.StaffID))
	}
	if len(c.Omit) > 0 {
		opts = append(opts, custody.WithOmit(c.Omit...))
	}
	if c.PickSet {
		opts = append(opts, custody.WithPick(c.Pick...))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithEngine sets a custom engine (useful for testing).
func WithEngine(e *custody.Engine) Option {
	return func(a *App) error {
		a.engine = e
		return nil
	}
}
