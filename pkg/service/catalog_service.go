package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/pricing"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var maxTaxRate = decimal.NewFromInt(100)

type CatalogService struct {
	*base
	logger *zap.Logger
}

type ProductInput struct {
	Reference   string           `json:"reference" validate:"max=50"`
	Name        string           `json:"name" validate:"required,max=255"`
	Category    string           `json:"category" validate:"required,oneof=macerat huile_essentielle"`
	Description string           `json:"description"`
	UnitVolume  string           `json:"unit_volume" validate:"max=20"`
	PriceHT     decimal.Decimal  `json:"price_ht"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	InStock     *bool            `json:"in_stock"`
}

// ProductPatch updates the fields that are set.
type ProductPatch struct {
	Reference   *string          `json:"reference" validate:"omitempty,max=50"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Category    *string          `json:"category" validate:"omitempty,oneof=macerat huile_essentielle"`
	Description *string          `json:"description"`
	UnitVolume  *string          `json:"unit_volume" validate:"omitempty,max=20"`
	PriceHT     *decimal.Decimal `json:"price_ht"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	IsActive    *bool            `json:"is_active"`
	InStock     *bool            `json:"in_stock"`
}

func productEntity(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func checkAmounts(price, rate *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return invalid("price_ht must not be negative")
	}
	if rate != nil && (rate.IsNegative() || rate.GreaterThan(maxTaxRate)) {
		return invalid("tax_rate must be between 0 and 100")
	}
	return nil
}

func referencePtr(ref string) *string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	return &ref
}

// List returns the active catalog sorted by category, then name.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	cached, err := s.deps.CatalogCache.GetProducts(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) && !errors.Is(err, errCacheDisabled) {
		s.logger.Warn("Catalog cache read failed", zap.Error(err))
	}

	products, err := s.deps.Products.ListActive(ctx)
	if err != nil {
		return nil, storeError(err, "list products")
	}
	if err := s.deps.CatalogCache.SetProducts(ctx, products); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.Error(err))
	}
	return products, nil
}

// Get returns a product. Deleted products are only visible to admins.
func (s *CatalogService) Get(ctx context.Context, p *Principal, id uint) (*models.Product, error) {
	product, err := s.deps.Products.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("product %d", id))
	}
	if !product.IsActive && !p.IsAdmin() {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return product, nil
}

func (s *CatalogService) Create(ctx context.Context, p *Principal, in ProductInput) (*models.Product, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := checkAmounts(&in.PriceHT, in.TaxRate); err != nil {
		return nil, err
	}

	product := &models.Product{
		Reference:   referencePtr(in.Reference),
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		UnitVolume:  in.UnitVolume,
		PriceHT:     pricing.Round(in.PriceHT),
		TaxRate:     models.DefaultTaxRate,
		IsActive:    true,
		InStock:     true,
	}
	if in.TaxRate != nil {
		product.TaxRate = pricing.Round(*in.TaxRate)
	}
	if in.InStock != nil {
		product.InStock = *in.InStock
	}
	if err := s.deps.Products.Create(ctx, product); err != nil {
		return nil, storeError(err, "create product")
	}

	s.changed(ctx, p, "create_product", product)
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, p *Principal, id uint, patch ProductPatch) (*models.Product, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := s.check(patch); err != nil {
		return nil, err
	}
	if err := checkAmounts(patch.PriceHT, patch.TaxRate); err != nil {
		return nil, err
	}
	product, err := s.modify(ctx, id, func(pr *models.Product) {
		if patch.Reference != nil {
			pr.Reference = referencePtr(*patch.Reference)
		}
		if patch.Name != nil {
			pr.Name = *patch.Name
		}
		if patch.Category != nil {
			pr.Category = *patch.Category
		}
		if patch.Description != nil {
			pr.Description = *patch.Description
		}
		if patch.UnitVolume != nil {
			pr.UnitVolume = *patch.UnitVolume
		}
		if patch.PriceHT != nil {
			pr.PriceHT = pricing.Round(*patch.PriceHT)
		}
		if patch.TaxRate != nil {
			pr.TaxRate = pricing.Round(*patch.TaxRate)
		}
		if patch.IsActive != nil {
			pr.IsActive = *patch.IsActive
		}
		if patch.InStock != nil {
			pr.InStock = *patch.InStock
		}
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, p, "update_product", product)
	return product, nil
}

// ToggleStock flips the product's in-stock flag.
func (s *CatalogService) ToggleStock(ctx context.Context, p *Principal, id uint) (*models.Product, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	product, err := s.modify(ctx, id, func(pr *models.Product) {
		pr.InStock = !pr.InStock
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, p, "toggle_stock", product)
	return product, nil
}

// Delete hides the product from the catalog. Orders keep their copy of its fields.
func (s *CatalogService) Delete(ctx context.Context, p *Principal, id uint) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	product, err := s.modify(ctx, id, func(pr *models.Product) {
		pr.IsActive = false
	})
	if err != nil {
		return err
	}
	s.changed(ctx, p, "delete_product", product)
	return nil
}

func (s *CatalogService) modify(ctx context.Context, id uint, change func(*models.Product)) (*models.Product, error) {
	var product *models.Product
	err := s.deps.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.deps.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		change(product)
		return s.deps.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("product %d", id))
	}
	return product, nil
}

func (s *CatalogService) changed(ctx context.Context, p *Principal, action string, product *models.Product) {
	if err := s.deps.CatalogCache.InvalidateProducts(ctx); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   action,
		EntityID: productEntity(product.ID),
		ActorID:  actorID(p),
		Data: map[string]interface{}{
			"reference": product.ReferenceOrEmpty(),
			"name":      product.Name,
			"price_ht":  product.PriceHT.StringFixed(2),
			"tax_rate":  product.TaxRate.StringFixed(2),
			"is_active": product.IsActive,
			"in_stock":  product.InStock,
		},
	})
}
