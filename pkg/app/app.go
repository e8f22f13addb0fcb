// Package app wires the portal's backends into the service layer for the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/clock"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/discovery"
	"github.com/gemmoherb/portal/pkg/notify"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/gemmoherb/portal/pkg/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notifyStatsTimeout = 5 * time.Second

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Services  *service.Services
	Discovery *discovery.ServiceDiscovery

	db       *gorm.DB
	redis    *repository.RedisRepository
	mongo    *repository.MongoRepository
	notifier *notify.Notifier
}

// New connects to MySQL, which is required, and to Redis, MongoDB and etcd, which are
// not: when one of those is unreachable the portal runs without cache, audit trail or
// service registration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, serviceName string) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := repository.OpenMySQL(&cfg.MySQL)
	if err != nil {
		return nil, err
	}
	a.db = db
	logger.Info("MySQL connected", zap.String("database", cfg.MySQL.Database))

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock.NewRealClock())
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	deps := service.Deps{
		Users:    repository.NewMySQLUsers(db),
		Products: repository.NewMySQLProducts(db),
		Orders:   repository.NewMySQLOrders(db),
		Messages: repository.NewMySQLMessages(db),
		Tx:       repository.NewGormTx(db),
		Tokens:   tokens,
		Logger:   logger,
		Order:    cfg.Order,
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis, cfg.Cache)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed, caching disabled", zap.Error(err))
		redisRepo.Close()
	} else {
		logger.Info("Redis connected successfully")
		a.redis = redisRepo
		deps.OrderCache = redisRepo
		deps.CatalogCache = redisRepo
	}

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB, serviceName)
	if err == nil {
		err = mongoRepo.Ping(ctx)
		if err != nil {
			mongoRepo.Close(ctx)
		}
	}
	if err != nil {
		logger.Warn("MongoDB connection failed, audit trail disabled", zap.Error(err))
	} else {
		logger.Info("MongoDB connected successfully")
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("Failed to create audit indexes", zap.Error(err))
		}
		a.mongo = mongoRepo
		deps.Audit = mongoRepo
	}

	notifier, err := notify.Start(logger, nil)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to start notifier: %w", err)
	}
	a.notifier = notifier
	deps.Notifier = notifier

	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			a.Discovery = sd
		}
	}

	a.Services = service.New(deps)
	return a, nil
}

// Register publishes this process in etcd under name. It is a no-op without etcd.
func (a *App) Register(ctx context.Context, name, host string, port int) (*discovery.ServiceInstance, error) {
	if a.Discovery == nil {
		return nil, nil
	}
	instance := &discovery.ServiceInstance{Name: name, Host: host, Port: port}
	if err := a.Discovery.Register(ctx, instance); err != nil {
		return nil, err
	}
	a.Logger.Info("Service registered in etcd",
		zap.String("name", name),
		zap.String("address", instance.Addr()))
	return instance, nil
}

func (a *App) Deregister(ctx context.Context, instance *discovery.ServiceInstance) {
	if a.Discovery == nil || instance == nil {
		return
	}
	if err := a.Discovery.Deregister(ctx, instance); err != nil {
		a.Logger.Error("Failed to deregister service", zap.Error(err))
	}
}

// Close releases every backend. Errors are logged.
func (a *App) Close(ctx context.Context) {
	if a.notifier != nil {
		if stats, err := a.notifier.Stats(notifyStatsTimeout); err == nil {
			a.Logger.Info("Notifier stopping",
				zap.Int("delivered", stats.Delivered),
				zap.Int("failed", stats.Failed))
		}
		if err := a.notifier.Stop(); err != nil {
			a.Logger.Warn("Notifier stop failed", zap.Error(err))
		}
	}
	if a.Discovery != nil {
		if err := a.Discovery.Close(); err != nil {
			a.Logger.Warn("etcd close failed", zap.Error(err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.Logger.Warn("MongoDB close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Redis close failed", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Warn("MySQL close failed", zap.Error(err))
			}
		}
	}
}
