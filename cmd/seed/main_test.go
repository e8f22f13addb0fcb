package main

import (
	"context"
	"testing"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/gemmoherb/portal/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServices(t *testing.T) (*service.Services, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens, err := auth.NewTokenManager("seed-secret", 0, nil)
	require.NoError(t, err)
	return service.New(service.Deps{
		Users:    store.Users(),
		Products: store.Products(),
		Orders:   store.Orders(),
		Messages: store.Messages(),
		Audit:    store.Audit(),
		Tx:       store.Tx(),
		Tokens:   tokens,
	}), store
}

func TestRunImportsBundledCatalog(t *testing.T) {
	ctx := context.Background()
	svcs, store := newServices(t)
	seed := config.SeedConfig{AdminUsername: "admin", AdminPassword: "changeme", AdminName: "Admin"}

	products, err := service.LoadProductFile("../../config/products.yaml")
	require.NoError(t, err)
	require.Len(t, products, 103)

	require.NoError(t, run(ctx, svcs, seed, products, zap.NewNop()))

	list, err := svcs.Catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 103)

	mac, err := store.Products().GetByReference(ctx, "MAC001")
	require.NoError(t, err)
	assert.Equal(t, "37.70", mac.PriceHT.StringFixed(2))
	assert.Equal(t, "19.00", mac.TaxRate.StringFixed(2))

	// A second run changes nothing.
	require.NoError(t, run(ctx, svcs, seed, products, zap.NewNop()))
	list, err = svcs.Catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 103)
}

func TestRunWithoutProducts(t *testing.T) {
	ctx := context.Background()
	svcs, _ := newServices(t)

	err := run(ctx, svcs, config.SeedConfig{AdminUsername: "admin", AdminPassword: "changeme"}, nil, zap.NewNop())
	require.NoError(t, err)

	res, err := svcs.Auth.Login(ctx, "admin", "changeme")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin())

	err = run(ctx, svcs, config.SeedConfig{AdminUsername: "other", AdminPassword: "123"}, nil, zap.NewNop())
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
