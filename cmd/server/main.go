package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"chatwire/internal/app"
)

func main() {
	// a local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := app.LoadServerConfig()
	if err != nil {
		log.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.RunServer(ctx, cfg, log)
	if err != nil {
		log.Error("server start error", "err", err)
		os.Exit(1)
	}
	log.Info("chatwire server listening", "addr", handle.Addr(), "ws_path", cfg.WSPath)

	if err := handle.Wait(); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}
