package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemmoherb/portal/pkg/app"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/grpc"
	"github.com/gemmoherb/portal/pkg/logging"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.StringP("config", "c", "config/config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting order service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, cfg.Server.Name)
	if err != nil {
		logger.Fatal("Failed to initialise backends", zap.Error(err))
	}

	server := grpc.NewOrderServer(cfg, a.Services.Orders, a.Services.Auth, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	instance, err := a.Register(ctx, cfg.Server.Name, cfg.Server.Host, cfg.Server.Port)
	if err != nil {
		logger.Warn("Failed to register service", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a.Deregister(shutdownCtx, instance)
	server.Stop()
	a.Close(shutdownCtx)

	logger.Info("Service stopped")
}
