// Package app wires the stores and services shared by the binaries.
package app

import (
	"context"

	"github.com/xelth-com/saisun/internal/archiver"
	"github.com/xelth-com/saisun/internal/catalog"
	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/matcher"
	"github.com/xelth-com/saisun/internal/measurement"
	"github.com/xelth-com/saisun/internal/reference"
	"github.com/xelth-com/saisun/internal/search"
	"github.com/xelth-com/saisun/internal/session"
	"github.com/xelth-com/saisun/internal/storage"
	"github.com/xelth-com/saisun/internal/template"
	"github.com/xelth-com/saisun/internal/users"
)

// App holds one set of stores over a single backend.
type App struct {
	Backend      *storage.Backend
	Catalog      *catalog.Store
	Templates    *template.Resolver
	Measurements *measurement.Store
	Reference    *reference.Store
	Users        *users.Store
	Recorder     *session.Recorder
	Archiver     *archiver.Archiver
	Search       *search.Service
}

// New opens the configured backend and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	tx := backend.Transactor
	t := cfg.Tables

	a := &App{
		Backend:      backend,
		Catalog:      catalog.NewStore(tx, t.Catalog, log),
		Templates:    template.NewResolver(tx, t.Templates, log),
		Measurements: measurement.NewStore(tx, t.Measurements, t.Archive, log),
		Reference:    reference.NewStore(tx, t.Reference, log),
		Users:        users.NewStore(tx, t.Users, log),
	}
	a.Recorder = session.NewRecorder(a.Catalog, a.Templates, a.Measurements, log,
		session.WithReference(a.Reference),
		session.WithMatchOptions(matcher.Options{ExcludeSelf: cfg.Matcher.ExcludeSelf}),
		session.WithLocation(cfg.Location),
	)
	a.Archiver = archiver.New(a.Measurements, log, archiver.WithLocation(cfg.Location))
	a.Search = search.NewService(a.Measurements, a.Templates)
	return a, nil
}

// Ensure creates every table with its header when missing.
func (a *App) Ensure(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		a.Catalog.Ensure,
		a.Templates.Ensure,
		a.Measurements.Ensure,
		a.Reference.Ensure,
		a.Users.Ensure,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Close() error { return a.Backend.Close() }
