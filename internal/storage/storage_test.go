package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/tabular/memory"
	"github.com/xelth-com/saisun/internal/tabular/sqlite"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "memory"}}
	b, err := Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()
	if _, ok := b.Store.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", b.Store)
	}
	if b.Transactor == nil {
		t.Fatal("transactor not set")
	}
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	cfg := &config.Config{Store: config.StoreConfig{Driver: "sqlite", SQLitePath: path}}
	b, err := Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := b.Store.(*sqlite.Store); !ok {
		t.Errorf("expected sqlite store, got %T", b.Store)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpenUnknownDrivers(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "excel"}}
	if _, err := Open(context.Background(), cfg, logger.Nop()); err == nil {
		t.Error("expected unknown store driver error")
	}
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "memory"},
		Lock:  config.LockConfig{Driver: "zookeeper"},
	}
	if _, err := Open(context.Background(), cfg, logger.Nop()); err == nil {
		t.Error("expected unknown lock driver error")
	}
}

func TestOpenSheetsRequiresSpreadsheet(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "sheets"}}
	if _, err := Open(context.Background(), cfg, logger.Nop()); err == nil {
		t.Error("expected error without spreadsheet id")
	}
}
