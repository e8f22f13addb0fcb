package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getRedis(t *testing.T) *RedisRepository {
	repo := NewRedisRepository(&config.RedisConfig{Addr: getenv("REDIS_ADDR", "localhost:6379")},
		config.CacheConfig{OrderTTL: time.Minute, CatalogTTL: time.Minute})
	if err := repo.Ping(context.Background()); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func getMongo(t *testing.T) *MongoRepository {
	repo, err := NewMongoRepository(&config.MongoDBConfig{
		URI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		Database:   "portal_test",
		Collection: "audit_logs",
	}, "test")
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := repo.Ping(ctx); err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	t.Cleanup(func() { repo.Close(context.Background()) })
	return repo
}

func getMySQL(t *testing.T) *gorm.DB {
	db, err := OpenMySQL(&config.MySQLConfig{
		Host:         getenv("MYSQL_HOST", "localhost"),
		Port:         3306,
		Username:     getenv("MYSQL_USER", "root"),
		Password:     getenv("MYSQL_PASSWORD", "root"),
		Database:     getenv("MYSQL_DATABASE", "portal_test"),
		MaxIdleConns: 2,
		MaxOpenConns: 10,
	})
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func TestRedisOrderCache(t *testing.T) {
	repo := getRedis(t)
	ctx := context.Background()

	order := newTestOrder("CMD-900", 1)
	order.ID = 424242
	require.NoError(t, repo.SetOrder(ctx, order))

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "CMD-900", got.OrderNumber)
	assert.True(t, got.TotalTTC.Equal(order.TotalTTC))
	require.Len(t, got.Items, 1)

	require.NoError(t, repo.InvalidateOrder(ctx, order.ID))
	_, err = repo.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCatalogCache(t *testing.T) {
	repo := getRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.InvalidateProducts(ctx))
	_, err := repo.GetProducts(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	products := []models.Product{{ID: 1, Name: "Lavande", PriceHT: decimal.RequireFromString("12.50")}}
	require.NoError(t, repo.SetProducts(ctx, products))
	got, err := repo.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].PriceHT.Equal(products[0].PriceHT))
}

func TestMongoAuditTrail(t *testing.T) {
	repo := getMongo(t)
	ctx := context.Background()

	entity := fmt.Sprintf("order:test-%d", time.Now().UnixNano())
	require.NoError(t, repo.Record(ctx, models.AuditEntry{Action: "order.created", EntityID: entity, ActorID: 3}))
	require.NoError(t, repo.Record(ctx, models.AuditEntry{Action: "order.status_updated", EntityID: entity, ActorID: 1,
		Data: map[string]interface{}{"status": "confirmed"}}))

	logs, err := repo.Find(ctx, entity, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "test", logs[0].Service)
}

func TestMySQLOrders(t *testing.T) {
	db := getMySQL(t)
	ctx := context.Background()
	orders := NewMySQLOrders(db)
	tx := NewGormTx(db)

	prefix := fmt.Sprintf("T%d", time.Now().UnixNano()%1_000_000)
	first := newTestOrder(prefix+"-999", 1)
	second := newTestOrder(prefix+"-1000", 1)
	token := newTestOrder(prefix+"-ZZZZZZ", 1)

	require.NoError(t, tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := orders.Create(ctx, first); err != nil {
			return err
		}
		if err := orders.Create(ctx, second); err != nil {
			return err
		}
		return orders.Create(ctx, token)
	}))
	t.Cleanup(func() {
		orders.Delete(context.Background(), first.ID)
		orders.Delete(context.Background(), second.ID)
		orders.Delete(context.Background(), token.ID)
	})

	latest, err := orders.LatestNumber(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+"-1000", latest)

	assert.ErrorIs(t, orders.Create(ctx, newTestOrder(prefix+"-999", 2)), ErrDuplicate)

	got, err := orders.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.TotalTTC.Equal(decimal.RequireFromString("89.73")))

	got.Status = models.OrderStatusConfirmed
	require.NoError(t, orders.Update(ctx, got))
	got, err = orders.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)

	require.NoError(t, orders.Delete(ctx, first.ID))
	_, err = orders.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", first.ID).Count(&items).Error)
	assert.Zero(t, items)
}
