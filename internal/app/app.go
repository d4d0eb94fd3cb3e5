// Package app wires the store and the three domain components into one
// value shared by the CLI and the scenario harness.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/N-Bhageeratha/OLP/internal/catalog"
	"github.com/N-Bhageeratha/OLP/internal/domain"
	"github.com/N-Bhageeratha/OLP/internal/identity"
	"github.com/N-Bhageeratha/OLP/internal/progress"
	"github.com/N-Bhageeratha/OLP/internal/seed"
	"github.com/N-Bhageeratha/OLP/internal/store"
)

type App struct {
	Store     *store.Store
	Directory *identity.Directory
	Catalog   *catalog.Catalog
	Tracker   *progress.Tracker
	Logger    *slog.Logger

	clock domain.Clock
	cost  int
}

// Options overrides the defaults used by Open. The zero value is valid.
type Options struct {
	Logger     *slog.Logger
	Clock      domain.Clock
	IDs        domain.IDGenerator
	BcryptCost int
}

// Open opens the store at path and builds the components on top of it.
func Open(path string, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = domain.UUIDv7Generator{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	st, err := store.Open(path, store.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cat := catalog.New(st,
		catalog.WithIDGenerator(opts.IDs),
		catalog.WithClock(opts.Clock),
		catalog.WithLogger(opts.Logger),
	)
	return &App{
		Store: st,
		Directory: identity.New(st,
			identity.WithIDGenerator(opts.IDs),
			identity.WithClock(opts.Clock),
			identity.WithLogger(opts.Logger),
			identity.WithBcryptCost(opts.BcryptCost),
		),
		Catalog: cat,
		Tracker: progress.New(st, cat,
			progress.WithClock(opts.Clock),
			progress.WithLogger(opts.Logger),
		),
		Logger: opts.Logger,
		clock:  opts.Clock,
		cost:   opts.BcryptCost,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// Seed replaces the store contents with the bundled sample catalog.
func (a *App) Seed(ctx context.Context) (seed.Stats, error) {
	fx, err := seed.Load()
	if err != nil {
		return seed.Stats{}, err
	}
	return seed.Bootstrap(ctx, a.Store, fx,
		seed.WithClock(a.clock),
		seed.WithBcryptCost(a.cost),
		seed.WithLogger(a.Logger),
	)
}

// Reset removes every record and the session.
func (a *App) Reset(ctx context.Context) error {
	if err := a.Store.ClearAll(ctx); err != nil {
		return err
	}
	a.Logger.Info("store cleared")
	return nil
}
