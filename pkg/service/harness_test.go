package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/clock"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret123"

type recordingNotifier struct {
	mu            sync.Mutex
	orders        []string
	messages      int
	registrations []string
}

func (n *recordingNotifier) OrderPlaced(o *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o.OrderNumber)
}

func (n *recordingNotifier) MessageSent(*models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages++
}

func (n *recordingNotifier) RegistrationReceived(u *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registrations = append(n.registrations, u.Username)
}

// mapCache is an in-process OrderCache and CatalogCache.
type mapCache struct {
	mu       sync.Mutex
	orders   map[uint]models.Order
	products []models.Product
	hasList  bool
}

func newMapCache() *mapCache {
	return &mapCache{orders: make(map[uint]models.Order)}
}

func (c *mapCache) GetOrder(_ context.Context, id uint) (*models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return &o, nil
}

func (c *mapCache) SetOrder(_ context.Context, o *models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[o.ID] = *o
	return nil
}

func (c *mapCache) InvalidateOrder(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
	return nil
}

func (c *mapCache) GetProducts(context.Context) ([]models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasList {
		return nil, repository.ErrCacheMiss
	}
	return append([]models.Product(nil), c.products...), nil
}

func (c *mapCache) SetProducts(_ context.Context, products []models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products, c.hasList = append([]models.Product(nil), products...), true
	return nil
}

func (c *mapCache) InvalidateProducts(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products, c.hasList = nil, false
	return nil
}

func (c *mapCache) cachedOrder(id uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.orders[id]
	return ok
}

// passthroughTx runs fn without any isolation, so concurrent creates race on the
// order number the way they would under READ COMMITTED.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type harness struct {
	store    *repository.MemoryStore
	clock    *clock.MockClock
	cache    *mapCache
	notifier *recordingNotifier
	tokens   *auth.TokenManager
	svc      *Services

	admin *Principal
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, func(*Deps) {})
}

func newHarnessWith(t *testing.T, adjust func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		store:    repository.NewMemoryStore(),
		clock:    clock.NewMockClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)),
		cache:    newMapCache(),
		notifier: &recordingNotifier{},
	}
	tokens, err := auth.NewTokenManager("test-secret", 0, h.clock)
	require.NoError(t, err)
	h.tokens = tokens

	deps := Deps{
		Users:        h.store.Users(),
		Products:     h.store.Products(),
		Orders:       h.store.Orders(),
		Messages:     h.store.Messages(),
		Audit:        h.store.Audit(),
		Tx:           h.store.Tx(),
		OrderCache:   h.cache,
		CatalogCache: h.cache,
		Notifier:     h.notifier,
		Tokens:       tokens,
		Clock:        h.clock,
		Order:        config.OrderConfig{NumberPrefix: "CMD", NumberWidth: 3, MaxNumberAttempts: 5},
	}
	adjust(&deps)
	h.svc = New(deps)

	admin := h.seedUser(t, "admin", models.RoleAdmin, models.UserStatusApproved)
	h.admin = PrincipalFromUser(admin)
	return h
}

func (h *harness) seedUser(t *testing.T, username, role, status string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Password:     hash,
		Name:         "Pharmacie " + username,
		Role:         role,
		Status:       status,
		PharmacyName: "Pharmacie " + username,
	}
	require.NoError(t, h.store.Users().Create(context.Background(), u))
	return u
}

func (h *harness) pharmacy(t *testing.T, username string) *Principal {
	t.Helper()
	return PrincipalFromUser(h.seedUser(t, username, models.RoleUser, models.UserStatusApproved))
}

func (h *harness) seedProduct(t *testing.T, name, price, rate string) *models.Product {
	t.Helper()
	taxRate := decimal.RequireFromString(rate)
	p, err := h.svc.Catalog.Create(context.Background(), h.admin, ProductInput{
		Name:     name,
		Category: models.CategoryMacerat,
		PriceHT:  decimal.RequireFromString(price),
		TaxRate:  &taxRate,
	})
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
