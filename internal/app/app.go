// Package app builds the object graph shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"daily-joke/internal/config"
	"daily-joke/internal/database"
	"daily-joke/internal/favorites"
	"daily-joke/internal/jokeapi"
	"daily-joke/internal/queue"
	"daily-joke/internal/repository"
	"daily-joke/internal/viewmodel"
	"daily-joke/pkg/logger"
)

type App struct {
	Config     *config.Config
	Store      *favorites.Store
	Repository *repository.Repository
	// Events is nil unless NATS is enabled.
	Events *queue.NATS

	log     *slog.Logger
	closers []func() error
}

type Option func(*options)

type options struct {
	log        *slog.Logger
	backend    favorites.Backend
	source     repository.Source
	origin     string
	skipEvents bool
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithBackend replaces the configured favorites backend.
func WithBackend(b favorites.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithSource replaces the joke API client.
func WithSource(s repository.Source) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithOrigin names the front end in published favorite events.
func WithOrigin(origin string) Option {
	return func(o *options) {
		o.origin = origin
	}
}

// WithoutEvents skips NATS even when it is enabled in the config.
func WithoutEvents() Option {
	return func(o *options) {
		o.skipEvents = true
	}
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{log: logger.Log}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, log: o.log}

	backend := o.backend
	if backend == nil {
		b, closer, err := OpenBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backend = b
		a.addCloser(closer)
	}

	a.Store = favorites.NewStore(backend,
		favorites.WithKey(cfg.Favorites.Key),
		favorites.WithLogger(o.log),
	)

	repoOpts := []repository.Option{
		repository.WithLogger(o.log),
		repository.WithEventOrigin(o.origin),
	}
	if cfg.NATS.Enabled && !o.skipEvents {
		q, err := queue.New(cfg.NATS)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Events = q
		a.addCloser(func() error {
			q.Close()
			return nil
		})
		repoOpts = append(repoOpts, repository.WithEventPublisher(q))
		o.log.Info("Connected to NATS", logger.String("url", cfg.NATS.URL))
	}

	source := o.source
	if source == nil {
		source = jokeapi.New(cfg.API)
	}
	a.Repository = repository.New(source, a.Store, repoOpts...)

	return a, nil
}

// NewController starts a view state controller over the app's repository.
func (a *App) NewController(ctx context.Context) *viewmodel.Controller {
	return viewmodel.New(ctx, a.Repository, viewmodel.WithLogger(a.log))
}

func (a *App) addCloser(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenBackend connects the favorites backend named by cfg.Favorites.Backend.
// The returned func releases it and may be nil.
func OpenBackend(ctx context.Context, cfg *config.Config) (favorites.Backend, func() error, error) {
	switch cfg.Favorites.Backend {
	case config.BackendFile, "":
		b, err := favorites.NewFileBackend(cfg.Favorites.ResolvedPath())
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	case config.BackendSQLite:
		b, err := favorites.OpenSQLite(cfg.Favorites.ResolvedPath())
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return database.NewPreferenceRepository(db), func() error {
			db.Close()
			return nil
		}, nil
	case config.BackendValkey:
		b, err := favorites.DialValkey(cfg.Valkey)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.BackendDynamoDB:
		b, err := favorites.DialDynamoDB(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Favorites.Backend)
	}
}
