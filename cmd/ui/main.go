package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/ui"
	"github.com/thep200/github-recommender/pkg/db"
	"github.com/thep200/github-recommender/pkg/log"
)

func main() {
	ctx := context.Background()

	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		os.Exit(1)
	}

	logger, _ := log.NewCslLogger()
	mysql, _ := db.NewMysql(config)

	server, err := ui.NewServer(logger, config, mysql, config.Ui.Port)
	if err != nil {
		logger.Error(ctx, "Failed to create UI server: %v", err)
		os.Exit(1)
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info(ctx, "Received shutdown signal, stopping UI server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error(ctx, "Failed to stop UI server: %v", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error(ctx, "UI server error: %v", err)
		os.Exit(1)
	}
}
