package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PlateBot/internal/app"
	"PlateBot/internal/config"
	"PlateBot/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	mirror := logging.NewMirror()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.File, mirror)

	application, err := app.New(cfg, logger, mirror)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
