package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCheck  = "check"
	PaymentMethodUnpaid = "unpaid"

	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	OrderNumber    string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"order_number"`
	Status         string          `gorm:"type:varchar(20);not null" json:"status"`
	SubtotalHT     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal_ht"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_amount"`
	TotalTTC       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_ttc"`
	PaymentMethod  string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null" json:"payment_status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem keeps a copy of the product fields as they were when the order was placed.
type OrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;index" json:"order_id"`
	ProductID        uint            `gorm:"not null" json:"product_id"`
	ProductName      string          `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductReference string          `gorm:"type:varchar(50);not null" json:"product_reference"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	PriceHT          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_ht"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TotalHT          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_ht"`
	TotalTTC         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_ttc"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func IsValidPaymentMethod(s string) bool {
	return s == PaymentMethodCash || s == PaymentMethodCheck || s == PaymentMethodUnpaid
}

func IsValidPaymentStatus(s string) bool {
	return s == PaymentStatusPaid || s == PaymentStatusUnpaid
}
