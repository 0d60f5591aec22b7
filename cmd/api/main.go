package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/saisun/internal/app"
	"github.com/xelth-com/saisun/internal/archiver"
	"github.com/xelth-com/saisun/internal/artifacts"
	"github.com/xelth-com/saisun/internal/config"
	"github.com/xelth-com/saisun/internal/export"
	"github.com/xelth-com/saisun/internal/handlers"
	"github.com/xelth-com/saisun/internal/importer/odoo"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the tabular store and make sure every table exists
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to open store", "driver", cfg.Store.Driver, "error", err)
	}
	if err := a.Ensure(ctx); err != nil {
		lg.Fatal("Failed to prepare tables", "error", err)
	}

	// 3. Optional integrations
	store, err := artifacts.Open(ctx, cfg.Artifacts)
	if err != nil {
		lg.Fatal("Failed to open artifact store", "driver", cfg.Artifacts.Driver, "error", err)
	}
	var source handlers.ListingSource
	if src, err := odoo.NewSource(cfg.Odoo, lg); err == nil {
		source = src
	} else if !errors.Is(err, odoo.ErrNotConfigured) {
		lg.Fatal("Invalid Odoo settings", "error", err)
	}

	hub := websocket.NewHub(lg)
	go hub.Run()

	// 4. Archiver runs once at startup and then on an interval
	scheduler := archiver.NewScheduler(a.Archiver, cfg.Archive.RetentionDays, cfg.Archive.Interval, cfg.Archive.OnStartup,
		func(moved int) {
			hub.Publish(websocket.EventArchived, map[string]int{"moved": moved})
		})
	scheduler.Start(ctx)

	// 5. HTTP router
	router := handlers.NewRouter(handlers.Services{
		Catalog:       a.Catalog,
		Templates:     a.Templates,
		Measurements:  a.Measurements,
		Reference:     a.Reference,
		Users:         a.Users,
		Recorder:      a.Recorder,
		Archiver:      a.Archiver,
		Search:        a.Search,
		Renderer:      export.Renderer{FontPath: cfg.Export.FontPath},
		Labels:        export.DefaultLabelConfig(),
		Artifacts:     store,
		Odoo:          source,
		Hub:           hub,
		JWTSecret:     cfg.JWTSecret,
		RetentionDays: cfg.Archive.RetentionDays,
		Log:           lg,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server starting", "port", cfg.Port, "store", cfg.Store.Driver, "env", cfg.NodeEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("Failed to start server", "error", err)
		}
	}()

	// 6. Wait for shutdown signal
	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("HTTP server shutdown error", "error", err)
	}
	scheduler.Stop()
	hub.Stop()

	if err := a.Close(); err != nil {
		lg.Error("store close error", "error", err)
	}
	lg.Info("shutdown complete")
}
