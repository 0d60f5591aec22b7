package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/xelth-com/saisun/internal/app"
	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/logger"
)

func main() {
	user := flag.String("admin", "admin", "admin username to create or reset")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (default $SEED_ADMIN_PASSWORD)")
	flag.Parse()

	if *password == "" {
		log.Fatal("an admin password is required: pass -password or set SEED_ADMIN_PASSWORD")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to open store", "driver", cfg.Store.Driver, "error", err)
	}
	defer a.Close()

	if err := app.Seed(ctx, a, *user, *password); err != nil {
		lg.Fatal("Seeding failed", "error", err)
	}

	entries, _ := a.Catalog.All(ctx)
	fmt.Printf("Seeded %d templates, %d catalog rows and admin user %q into %s store\n",
		len(app.DemoTemplates), len(entries), *user, cfg.Store.Driver)
}
