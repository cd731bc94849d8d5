// Package main runs the ciphermaniac REST API server: it loads the
// tournament report window, serves aggregated reports and trend datasets,
// and pushes refresh events to WebSocket clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rosematcha/ciphermaniac/internal/api"
	"github.com/rosematcha/ciphermaniac/internal/config"
	"github.com/rosematcha/ciphermaniac/internal/engine"
	"github.com/rosematcha/ciphermaniac/internal/fetch"
	"github.com/rosematcha/ciphermaniac/internal/storage"
)

var (
	addr            = flag.String("addr", "", "Listen address (overrides config)")
	configPath      = flag.String("config", "", "Config file path (default: ~/.ciphermaniac/config.toml)")
	localRoot       = flag.String("local", "", "Serve from a local report directory instead of the remote store")
	refreshInterval = flag.Duration("refresh-interval", 0, "Periodic refresh interval (0 = refresh once at startup)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *localRoot != "" {
		cfg.Source.LocalRoot = *localRoot
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open cache database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing cache database: %v", err)
		}
	}()
	cache := storage.NewReportCache(store)

	client, err := newFetchClient(cfg, cache)
	if err != nil {
		log.Fatalf("Failed to create fetch client: %v", err)
	}

	eng := engine.New(client, cache, engine.Options{
		MinAppearances: cfg.Trends.MinAppearances,
		TopCards:       cfg.Trends.TopCards,
		MaxTournaments: cfg.Trends.MaxTournaments,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Loading tournament data...")
	event, err := eng.Refresh(ctx)
	if err != nil {
		log.Fatalf("Failed to load tournament data: %v", err)
	}
	log.Printf("Loaded %d tournaments (%d decks)", event.Tournaments, event.Decks)

	if *refreshInterval > 0 {
		go refreshLoop(ctx, eng, *refreshInterval)
	}

	serverTimeout, err := cfg.GetServerTimeout()
	if err != nil {
		log.Fatalf("Invalid server timeout: %v", err)
	}
	server := api.NewServer(&api.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: serverTimeout,
	}, eng)

	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Printf("API server running on %s\n", cfg.Server.Addr)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFetchClient(cfg *config.Config, cache *storage.ReportCache) (*fetch.Client, error) {
	if cfg.Source.LocalRoot != "" {
		return fetch.NewLocalClient(cfg.Source.LocalRoot), nil
	}

	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}

	return fetch.NewClient(&fetch.Config{
		BaseURL:           cfg.Source.BaseURL,
		RequestTimeout:    timeout,
		CacheTTL:          ttl,
		RetryMax:          cfg.Source.RetryMax,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Concurrency:       cfg.Source.Concurrency,
		Store:             cache,
	}), nil
}

func openStore(cfg *config.Config) (*storage.DB, error) {
	dbPath := cfg.Cache.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	storageConfig := storage.DefaultConfig(dbPath)
	storageConfig.AutoMigrate = true
	return storage.Open(storageConfig)
}

// refreshLoop reloads the tournament window on an interval. Refresh failures
// are logged and retried next tick; the last good snapshot keeps serving.
func refreshLoop(ctx context.Context, eng *engine.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			event, err := eng.Refresh(ctx)
			if err != nil {
				log.Printf("Refresh failed: %v", err)
				continue
			}
			log.Printf("Refreshed: %d tournaments (%d decks)", event.Tournaments, event.Decks)
		}
	}
}
