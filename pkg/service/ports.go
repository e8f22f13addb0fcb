package service

import (
	"context"

	"github.com/gemmoherb/portal/pkg/models"
)

// OrderCache is a read-through cache of order details. Misses return an error.
type OrderCache interface {
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	SetOrder(ctx context.Context, order *models.Order) error
	InvalidateOrder(ctx context.Context, id uint) error
}

// CatalogCache caches the active product list.
type CatalogCache interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	SetProducts(ctx context.Context, products []models.Product) error
	InvalidateProducts(ctx context.Context) error
}

// Notifier is told about events someone should hear about. Calls must not block.
type Notifier interface {
	OrderPlaced(order *models.Order)
	MessageSent(msg *models.Message)
	RegistrationReceived(user *models.User)
}

type noCache struct{}

func (noCache) GetOrder(context.Context, uint) (*models.Order, error) { return nil, errCacheDisabled }
func (noCache) SetOrder(context.Context, *models.Order) error         { return nil }
func (noCache) InvalidateOrder(context.Context, uint) error           { return nil }
func (noCache) GetProducts(context.Context) ([]models.Product, error) { return nil, errCacheDisabled }
func (noCache) SetProducts(context.Context, []models.Product) error   { return nil }
func (noCache) InvalidateProducts(context.Context) error              { return nil }

type noNotifier struct{}

func (noNotifier) OrderPlaced(*models.Order)         {}
func (noNotifier) MessageSent(*models.Message)       {}
func (noNotifier) RegistrationReceived(*models.User) {}
