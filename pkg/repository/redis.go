package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/go-redis/redis/v8"
)

const catalogKey = "catalog:active"

// RedisRepository is the read-through cache for order details and the active catalog.
type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
	ttl    config.CacheConfig
}

func NewRedisRepository(cfg *config.RedisConfig, ttl config.CacheConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
		ttl:    ttl,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes the value stored at key into dest. A missing key yields ErrCacheMiss.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func orderKey(id uint) string {
	return fmt.Sprintf("order:%d", id)
}

func (r *RedisRepository) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.GetJSON(ctx, orderKey(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *RedisRepository) SetOrder(ctx context.Context, order *models.Order) error {
	return r.SetJSON(ctx, orderKey(order.ID), order, r.ttl.OrderTTL)
}

func (r *RedisRepository) InvalidateOrder(ctx context.Context, id uint) error {
	return r.Del(ctx, orderKey(id))
}

func (r *RedisRepository) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.GetJSON(ctx, catalogKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RedisRepository) SetProducts(ctx context.Context, products []models.Product) error {
	return r.SetJSON(ctx, catalogKey, products, r.ttl.CatalogTTL)
}

func (r *RedisRepository) InvalidateProducts(ctx context.Context) error {
	return r.Del(ctx, catalogKey)
}
