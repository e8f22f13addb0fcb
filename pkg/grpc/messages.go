package grpc

import (
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/service"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	Items []service.ItemRequest `json:"items"`
	Notes string                `json:"notes,omitempty"`
}

type CreateOrderResponse struct {
	OrderID     uint          `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	Order       *models.Order `json:"order"`
}

type GetOrderRequest struct {
	ID uint `json:"id"`
}

type OrderResponse struct {
	Order *models.Order `json:"order"`
}

// ListOrdersRequest lists the caller's orders, or every order when All is set by an admin.
type ListOrdersRequest struct {
	All bool `json:"all"`
}

type ListOrdersResponse struct {
	Orders []models.Order `json:"orders"`
}

type UpdateOrderStatusRequest struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

type UpdatePaymentRequest struct {
	ID            uint    `json:"id"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

type ApplyDiscountRequest struct {
	ID     uint            `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

type DeleteOrderRequest struct {
	ID uint `json:"id"`
}

type DeleteOrderResponse struct{}
