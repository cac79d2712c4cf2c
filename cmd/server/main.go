package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"bbbank/bbbank-ui/internal/app"
	"bbbank/bbbank-ui/internal/config"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("bbbank-ui: ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("start with %s session storage: %v", cfg.Session.Backend, err)
	}

	log.Printf("serving on %s (session storage: %s)", cfg.HTTP.Addr, cfg.Session.Backend)
	if err := a.Run(ctx); err != nil {
		log.Fatalf("stopped: %v", err)
	}
}
