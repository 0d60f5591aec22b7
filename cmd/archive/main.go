// Command archive moves measurement records past the retention window to
// the archive table once and exits. Intended for cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/xelth-com/saisun/internal/app"
	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/logger"
)

func main() {
	days := flag.Int("days", -1, "retention in days (default RETENTION_DAYS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	if *days < 0 {
		*days = cfg.Archive.RetentionDays
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to open store", "driver", cfg.Store.Driver, "error", err)
	}
	defer a.Close()

	if err := a.Measurements.Ensure(ctx); err != nil {
		lg.Fatal("Failed to prepare measurement tables", "error", err)
	}
	moved, err := a.Archiver.ArchiveOlderThan(ctx, *days)
	if err != nil {
		lg.Fatal("Archive failed", "error", err)
	}
	fmt.Printf("Archived %d records dated before %s\n", moved, a.Archiver.Cutoff(*days).Format("2006-01-02"))
}
