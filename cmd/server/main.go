package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/engine"
	"github.com/parleyhq/parley/internal/evaluator"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/panels"
	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/web/handlers"
)

func main() {
	port := flag.Int("port", 0, "Server port (default: config server.port)")
	cfgPath := flag.String("config", "", "Config file path (default: ~/.parley/config.yaml)")
	dbPath := flag.String("db", "", "Database path (default: ~/.parley/parley.db)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Initialize slog
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if *debug {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	// Populate process env from .env before config resolution; API-backed
	// providers read their keys from the environment.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	// Load config
	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.LoadFrom(*cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize storage
	store, err := openStorage(ctx, cfg, *dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize provider registry
	registry, err := cfg.CreateRegistry()
	if err != nil {
		slog.Error("Failed to initialize provider registry", "error", err)
		os.Exit(1)
	}

	// Wire the engine: live events go to the broadcaster for SSE fan-out.
	broadcaster := events.NewBroadcaster()
	engOpts := engine.Options{
		Storage:  store,
		Registry: registry,
		Sink:     broadcaster,
	}
	if name, model := splitProviderModel(cfg.Defaults.Evaluator); name != "" {
		if p, err := registry.Get(name); err == nil && p.Available() {
			engOpts.Evaluator = evaluator.New(p, model)
		} else {
			slog.Warn("Evaluator provider unavailable, running without response analysis", "provider", name)
		}
	}
	if name, model := splitProviderModel(cfg.Defaults.Moderator); name != "" {
		if p, err := registry.Get(name); err == nil && p.Available() {
			engOpts.Moderator = engine.NewModerator(p, model)
		} else {
			slog.Warn("Moderator provider unavailable, summaries will be mechanical", "provider", name)
		}
	}
	eng := engine.New(engOpts)

	// Create handler
	h := handlers.New(eng, registry, broadcaster, panels.NewManager(config.PanelsDir()))

	// Start server
	listenPort := *port
	if listenPort == 0 {
		listenPort = cfg.Server.Port
	}
	addr := fmt.Sprintf(":%d", listenPort)
	server := &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	slog.Info("Starting parley API server", "url", fmt.Sprintf("http://localhost%s", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, dbPath string) (storage.Storage, error) {
	driver := cfg.Storage.Driver
	if driver == "" {
		driver = "sqlite"
	}

	var store storage.Storage
	switch driver {
	case "sqlite":
		path := dbPath
		if path == "" {
			path = cfg.DefaultDBPath()
		}
		slog.Info("Using sqlite storage", "path", path)
		s, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		if cfg.Storage.DSN == "" {
			return nil, fmt.Errorf("storage driver is postgres but storage.dsn is not configured")
		}
		slog.Info("Using postgres storage")
		s, err := storage.NewPostgresStorage(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		store = s
	case "memory":
		slog.Warn("Using in-memory storage, debates will not survive restarts")
		store = storage.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}

	if err := store.Initialize(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func splitProviderModel(spec string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(spec), "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}
