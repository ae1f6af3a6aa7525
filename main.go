package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/app"
	"github.com/km-arc/go-shopping/framework/config"
	"github.com/km-arc/go-shopping/framework/logging"
)

func main() {
	cfg := config.Load() // loads .env when present

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("boot failed", zap.Error(err))
	}
	if err := k.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
}
