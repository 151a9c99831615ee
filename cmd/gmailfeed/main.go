package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"gmailfeed/internal/app"
	"gmailfeed/internal/config"
)

func main() {
	configPath := flag.String("config", "config.json", "path to configuration file (.json, .toml, .yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid config: %v", err)
	}
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: could not start application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
