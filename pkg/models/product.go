package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryMacerat      = "macerat"
	CategoryEssentialOil = "huile_essentielle"
)

// DefaultTaxRate is the TVA percentage applied when a product is created without one.
var DefaultTaxRate = decimal.RequireFromString("19.00")

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Reference   *string         `gorm:"type:varchar(50);uniqueIndex" json:"reference"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Category    string          `gorm:"type:varchar(32);not null;index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	UnitVolume  string          `gorm:"type:varchar(20)" json:"unit_volume"`
	PriceHT     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_ht"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	IsActive    bool            `gorm:"not null" json:"is_active"`
	InStock     bool            `gorm:"not null" json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) ReferenceOrEmpty() string {
	if p.Reference == nil {
		return ""
	}
	return *p.Reference
}

func IsValidCategory(s string) bool {
	return s == CategoryMacerat || s == CategoryEssentialOil
}
