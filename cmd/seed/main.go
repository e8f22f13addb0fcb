// Command seed creates the administrator account configured under seed.* if it does not
// exist yet. With --products it also imports a catalog file, skipping references that
// are already present.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gemmoherb/portal/pkg/app"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/logging"
	"github.com/gemmoherb/portal/pkg/service"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.StringP("config", "c", "config/config.yaml", "path to the YAML configuration")
	productsPath := flag.StringP("products", "p", "", "catalog file to import (.yaml or .json)")
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

	if cfg.Seed.AdminPassword == "" {
		logger.Fatal("seed.admin_password is required (or PORTAL_SEED_ADMIN_PASSWORD)")
	}

	var products []service.ProductInput
	if *productsPath != "" {
		products, err = service.LoadProductFile(*productsPath)
		if err != nil {
			logger.Fatal("Failed to load products", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, "seed")
	if err != nil {
		logger.Fatal("Failed to initialise backends", zap.Error(err))
	}

	if err := run(ctx, a.Services, cfg.Seed, products, logger); err != nil {
		a.Close(ctx)
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	a.Close(ctx)
}

func run(ctx context.Context, svcs *service.Services, seed config.SeedConfig, products []service.ProductInput, logger *zap.Logger) error {
	admin, created, err := svcs.Users.EnsureAdmin(ctx, seed.AdminUsername, seed.AdminPassword, seed.AdminEmail, seed.AdminName)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info("Admin account created", zap.String("username", seed.AdminUsername))
	} else {
		logger.Info("Admin account already exists", zap.String("username", seed.AdminUsername))
	}

	if len(products) == 0 {
		return nil
	}
	res, err := svcs.Catalog.Import(ctx, service.PrincipalFromUser(admin), products)
	if err != nil {
		return fmt.Errorf("import products: %w", err)
	}
	logger.Info("Products imported", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return nil
}
