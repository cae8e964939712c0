package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CromwellTrading/PelisBot/internal/app/cinebot"
	"github.com/CromwellTrading/PelisBot/internal/config"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	logger.Info("starting bot and web panel API", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cinebot.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize cinebot app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("cinebot app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("cinebot app stopped gracefully")
}
