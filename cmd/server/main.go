package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"textdrive/internal/conf"
	"textdrive/internal/interp"
	"textdrive/internal/messenger"
	"textdrive/internal/provider"
	"textdrive/internal/session"
	"textdrive/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default: search usual locations)")
	dbPath := flag.String("db", "", "Path to session database (overrides config)")
	flag.Parse()

	log.Println("Starting textdrive SMS storage navigator...")

	var cfg *conf.Config
	var err error
	if *configPath != "" {
		cfg, err = conf.LoadConfigFile(*configPath)
	} else {
		cfg, err = conf.LoadConfig()
	}
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *dbPath != "" {
		cfg.Session.DBPath = *dbPath
	}

	store, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		log.Fatal("Failed to open session store:", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing session store: %v", err)
		}
	}()
	log.Printf("Session store ready: %s", cfg.Session.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storageProvider, err := provider.NewS3Provider(ctx, cfg.Storage, store)
	if err != nil {
		log.Fatal("Failed to initialize storage provider:", err)
	}
	log.Printf("Storage provider ready: %s (region %s)", cfg.Storage.Endpoint, cfg.Storage.Region)

	gateway := messenger.NewSMSGateway(cfg.Gateway)
	handler := interp.NewHandler(storageProvider, gateway, cfg.Gateway.Number)
	server := webhook.NewServer(cfg, store, handler, gateway)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Webhook server listening on %s", cfg.Server.Listen)
		return server.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error:", err)
	}
	log.Println("Shutdown complete")
}
