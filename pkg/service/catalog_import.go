package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ImportResult counts what an Import run did.
type ImportResult struct {
	Created int
	Skipped int
}

// LoadProductFile reads a catalog file with a top-level "products" list. The format
// follows the extension: .yaml, .yml or .json.
func LoadProductFile(path string) ([]ProductInput, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read product file: %w", err)
	}

	raw := v.Get("products")
	if raw == nil {
		return nil, fmt.Errorf("product file %s has no products list", path)
	}
	// decimal.Decimal decodes from JSON strings and numbers alike.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode products: %w", err)
	}
	var inputs []ProductInput
	if err := json.Unmarshal(b, &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return inputs, nil
}

// Import creates every product whose reference is not in the catalog yet, so running
// it twice is harmless. Each product needs a reference.
func (s *CatalogService) Import(ctx context.Context, p *Principal, inputs []ProductInput) (ImportResult, error) {
	var res ImportResult
	if err := RequireAdmin(p); err != nil {
		return res, err
	}
	for i, in := range inputs {
		ref := strings.TrimSpace(in.Reference)
		if ref == "" {
			return res, invalid("product %d (%s) has no reference", i, in.Name)
		}
		_, err := s.deps.Products.GetByReference(ctx, ref)
		if err == nil {
			res.Skipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return res, storeError(err, "lookup product "+ref)
		}
		if _, err := s.Create(ctx, p, in); err != nil {
			return res, fmt.Errorf("product %s: %w", ref, err)
		}
		res.Created++
	}
	s.logger.Info("Catalog imported", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return res, nil
}
