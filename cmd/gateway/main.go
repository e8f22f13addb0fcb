package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gemmoherb/portal/gateway"
	"github.com/gemmoherb/portal/pkg/app"
	"github.com/gemmoherb/portal/pkg/config"
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

	logger.Info("Starting API Gateway",
		zap.Int("port", cfg.Gateway.Port),
		zap.String("host", cfg.Gateway.Host))

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, cfg.Gateway.Name)
	if err != nil {
		logger.Fatal("Failed to initialise backends", zap.Error(err))
	}

	gw := gateway.NewGateway(cfg, a.Services, logger)

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	instance, err := a.Register(ctx, cfg.Gateway.Name, cfg.Gateway.Host, cfg.Gateway.Port)
	if err != nil {
		logger.Warn("Failed to register gateway", zap.Error(err))
	}

	logger.Info("Gateway started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Error("Gateway error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a.Deregister(shutdownCtx, instance)
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	a.Close(shutdownCtx)

	logger.Info("Gateway stopped")
}
