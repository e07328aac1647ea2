package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/feedless/rss-dedup/app/api"
	"github.com/feedless/rss-dedup/app/cfg"
	"github.com/feedless/rss-dedup/app/database"
	"github.com/feedless/rss-dedup/app/dedup"
	"github.com/feedless/rss-dedup/app/feed"
	"github.com/feedless/rss-dedup/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RSS Dedup", "version", appCfg.Version)

	db, err := database.NewConnection(filepath.Join(appCfg.DataDir, "registry.db"))
	if err != nil {
		slog.Error("Failed to open registry database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	registryRepo := database.NewRegistryRepository(db)

	// A registry that cannot be loaded is fatal: proceeding with an
	// empty one would silently re-mint every output identity.
	registry, err := registryRepo.GetAll()
	if err != nil {
		slog.Error("Failed to load subscription registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Subscription registry loaded", "feeds", len(registry))

	lastPurge, err := registryRepo.GetLastPurge()
	if err != nil {
		slog.Error("Failed to load last purge time", "error", err)
		os.Exit(1)
	}

	settings, err := feed.LoadSettings(appCfg.SettingsFile)
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(appCfg.OutputDir, 0755); err != nil {
		slog.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	store := dedup.NewStore[feed.Item]()
	parser := feed.NewParser()
	processor := feed.NewProcessor(parser, store, settings)
	generator := feed.NewGenerator()

	scheduler := tasks.NewScheduler(registryRepo, store, processor, generator, settings, registry, lastPurge)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(scheduler)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	case <-scheduler.Done():
		slog.Info("Iteration budget exhausted")
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
