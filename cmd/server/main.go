package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	server "lantern/server"
	"lantern/server/internal/app"
	"lantern/server/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{
		Server:        cfg,
		Observability: observability.FromEnv(),
	}); err != nil {
		log.Fatalf("%v", err)
	}
}
