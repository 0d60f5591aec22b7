// Package storage selects the tabular backend and lock driver from config.
package storage

import (
	"context"
	"fmt"

	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/database"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/memory"
	"github.com/xelth-com/saisun/internal/tabular/postgres"
	"github.com/xelth-com/saisun/internal/tabular/sheets"
	"github.com/xelth-com/saisun/internal/tabular/sqlite"
)

// Lock driver names accepted by LOCK_DRIVER.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Backend bundles the opened store, its transactor and everything that must
// be closed on shutdown.
type Backend struct {
	Store      tabular.Store
	Transactor *tabular.Transactor
	closers    []func() error
}

// Close releases the store and lock connections in reverse open order.
func (b *Backend) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open selects a backend from cfg. Defaults to sqlite when unset.
//
//	STORE_DRIVER: memory|sqlite|postgres|sheets
//	LOCK_DRIVER:  local|redis
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	b := &Backend{}
	store, err := openStore(ctx, cfg, log, b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	locker, err := openLocker(ctx, cfg.Lock, b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Store = store
	b.Transactor = tabular.NewTransactor(store, locker)
	log.Info("storage ready", "store", cfg.Store.Driver, "lock", cfg.Lock.Driver)
	return b, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, b *Backend) (tabular.Store, error) {
	driver := cfg.Store.Driver
	if driver == "" {
		driver = string(tabular.DriverSQLite)
	}
	switch tabular.Driver(driver) {
	case tabular.DriverMemory:
		return memory.NewStore(), nil
	case tabular.DriverSQLite:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		return s, nil
	case tabular.DriverPostgres:
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		return postgres.NewStore(db.DB)
	case tabular.DriverSheets:
		return sheets.NewStore(ctx, cfg.Sheets.SpreadsheetID, sheets.ClientOptions(cfg.Sheets.Credentials)...)
	default:
		return nil, fmt.Errorf("unknown store driver %s", driver)
	}
}

func openLocker(ctx context.Context, cfg config.LockConfig, b *Backend) (tabular.Locker, error) {
	switch cfg.Driver {
	case "", LockLocal:
		return tabular.NewLocalLocker(), nil
	case LockRedis:
		l, err := tabular.NewRedisLocker(ctx, cfg.RedisAddr, cfg.TTL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, l.Close)
		return l, nil
	default:
		return nil, fmt.Errorf("unknown lock driver %s", cfg.Driver)
	}
}
