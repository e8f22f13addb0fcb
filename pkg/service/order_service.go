package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/pricing"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

type OrderService struct {
	*base
	logger *zap.Logger
}

type ItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gt=0"`
}

type CreateOrderInput struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes string        `json:"notes" validate:"max=2000"`
}

// PaymentUpdate changes the fields that are set and leaves the others alone.
type PaymentUpdate struct {
	Method *string `json:"payment_method"`
	Status *string `json:"payment_status"`
}

func orderEntity(id uint) string {
	return fmt.Sprintf("order:%d", id)
}

// CreateOrder prices the requested items against the live catalog and stores the order
// with its items in one transaction under the next free order number.
func (s *OrderService) CreateOrder(ctx context.Context, p *Principal, in CreateOrderInput) (*models.Order, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(in.Items))
	products := make(map[uint]*models.Product, len(in.Items))
	for _, it := range in.Items {
		product, ok := products[it.ProductID]
		if !ok {
			var err error
			product, err = s.deps.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, storeError(err, fmt.Sprintf("product %d", it.ProductID))
			}
			if !product.IsActive {
				return nil, fmt.Errorf("product %d: %w", it.ProductID, ErrNotFound)
			}
			if !product.InStock {
				return nil, fmt.Errorf("product %d (%s): %w", product.ID, product.Name, ErrOutOfStock)
			}
			products[it.ProductID] = product
		}
		lines = append(lines, pricing.Line{
			ProductID: product.ID,
			Quantity:  it.Quantity,
			PriceHT:   product.PriceHT,
			TaxRate:   product.TaxRate,
		})
	}
	quote := pricing.Compute(lines)

	now := s.deps.Clock.Now()
	order := &models.Order{
		UserID:         p.UserID,
		Status:         models.OrderStatusPending,
		SubtotalHT:     quote.SubtotalHT,
		TaxAmount:      quote.TaxAmount,
		DiscountAmount: decimal.Zero,
		TotalTTC:       quote.TotalTTC,
		PaymentMethod:  models.PaymentMethodUnpaid,
		PaymentStatus:  models.PaymentStatusUnpaid,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, pl := range quote.Lines {
		product := products[pl.ProductID]
		order.Items = append(order.Items, models.OrderItem{
			ProductID:        product.ID,
			ProductName:      product.Name,
			ProductReference: product.ReferenceOrEmpty(),
			Quantity:         pl.Quantity,
			PriceHT:          pl.PriceHT,
			TaxRate:          pl.TaxRate,
			TotalHT:          pl.TotalHT,
			TotalTTC:         pl.TotalTTC,
		})
	}

	if err := s.insertNumbered(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", order.UserID),
		zap.String("total_ttc", order.TotalTTC.StringFixed(2)))

	s.deps.Notifier.OrderPlaced(order)
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "create_order",
		EntityID: orderEntity(order.ID),
		ActorID:  p.UserID,
		Data: map[string]interface{}{
			"order_number": order.OrderNumber,
			"items":        len(order.Items),
			"total_ttc":    order.TotalTTC.StringFixed(2),
		},
	})
	return order, nil
}

// insertNumbered allocates the order number and inserts the order. A number taken by a
// concurrent insert is recomputed; after MaxNumberAttempts collisions the call fails
// with ErrConflict.
func (s *OrderService) insertNumbered(ctx context.Context, order *models.Order) error {
	cfg := s.deps.Order
	for attempt := 1; attempt <= cfg.MaxNumberAttempts; attempt++ {
		err := s.deps.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			latest, err := s.deps.Orders.LatestNumber(ctx, cfg.NumberPrefix)
			if err != nil {
				return err
			}
			order.ID = 0
			for i := range order.Items {
				order.Items[i].ID = 0
				order.Items[i].OrderID = 0
			}
			order.OrderNumber = NextOrderNumber(cfg.NumberPrefix, cfg.NumberWidth, latest)
			return s.deps.Orders.Create(ctx, order)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return storeError(err, "create order")
		}
		s.logger.Debug("Order number collision, retrying",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt))
	}
	return fmt.Errorf("allocate order number after %d attempts: %w", cfg.MaxNumberAttempts, ErrConflict)
}

// ListMine returns the caller's orders, newest first, without items.
func (s *OrderService) ListMine(ctx context.Context, p *Principal) ([]models.Order, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	orders, err := s.deps.Orders.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, storeError(err, "list orders")
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context, p *Principal) ([]models.Order, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	orders, err := s.deps.Orders.ListAll(ctx)
	if err != nil {
		return nil, storeError(err, "list orders")
	}
	return orders, nil
}

// GetOrder returns the order with its items to an admin or to the order's owner.
func (s *OrderService) GetOrder(ctx context.Context, p *Principal, id uint) (*models.Order, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanViewOrder(p, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	if cached, err := s.deps.OrderCache.GetOrder(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, repository.ErrCacheMiss) && !errors.Is(err, errCacheDisabled) {
		s.logger.Warn("Order cache read failed", zap.Uint("order_id", id), zap.Error(err))
	}

	order, err := s.deps.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("order %d", id))
	}
	if err := s.deps.OrderCache.SetOrder(ctx, order); err != nil {
		s.logger.Warn("Order cache write failed", zap.Uint("order_id", id), zap.Error(err))
	}
	return order, nil
}

// mutate loads the order inside a transaction, applies change and writes it back.
func (s *OrderService) mutate(ctx context.Context, id uint, change func(o *models.Order) error) (*models.Order, error) {
	var updated *models.Order
	err := s.deps.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.deps.Orders.GetByID(ctx, id)
		if err != nil {
			return storeError(err, fmt.Sprintf("order %d", id))
		}
		if err := change(order); err != nil {
			return err
		}
		order.UpdatedAt = s.deps.Clock.Now()
		if err := s.deps.Orders.Update(ctx, order); err != nil {
			return storeError(err, fmt.Sprintf("order %d", id))
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *OrderService) invalidate(ctx context.Context, id uint) {
	if err := s.deps.OrderCache.InvalidateOrder(ctx, id); err != nil {
		s.logger.Warn("Order cache invalidation failed", zap.Uint("order_id", id), zap.Error(err))
	}
}

// UpdateStatus overwrites the status. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, p *Principal, id uint, status string) (*models.Order, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if !models.IsValidOrderStatus(status) {
		return nil, invalid("unknown order status %q", status)
	}
	var previous string
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		previous = o.Status
		o.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "update_status",
		EntityID: orderEntity(id),
		ActorID:  p.UserID,
		Data:     map[string]interface{}{"from": previous, "to": status},
	})
	return order, nil
}

func (s *OrderService) UpdatePayment(ctx context.Context, p *Principal, id uint, in PaymentUpdate) (*models.Order, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if in.Method == nil && in.Status == nil {
		return nil, invalid("payment_method or payment_status is required")
	}
	if in.Method != nil && !models.IsValidPaymentMethod(*in.Method) {
		return nil, invalid("unknown payment method %q", *in.Method)
	}
	if in.Status != nil && !models.IsValidPaymentStatus(*in.Status) {
		return nil, invalid("unknown payment status %q", *in.Status)
	}
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		if in.Method != nil {
			o.PaymentMethod = *in.Method
		}
		if in.Status != nil {
			o.PaymentStatus = *in.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "update_payment",
		EntityID: orderEntity(id),
		ActorID:  p.UserID,
		Data: map[string]interface{}{
			"payment_method": order.PaymentMethod,
			"payment_status": order.PaymentStatus,
		},
	})
	return order, nil
}

// ApplyDiscount sets an absolute discount on the order and recomputes its TTC total.
// The discount is clamped to [0, subtotal HT + tax]; sub-cent amounts are refused.
func (s *OrderService) ApplyDiscount(ctx context.Context, p *Principal, id uint, amount decimal.Decimal) (*models.Order, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if !amount.Equal(pricing.Round(amount)) {
		return nil, invalid("discount %s has more than two decimals", amount.String())
	}
	order, err := s.mutate(ctx, id, func(o *models.Order) error {
		o.DiscountAmount, o.TotalTTC = pricing.ApplyDiscount(o.SubtotalHT, o.TaxAmount, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !order.DiscountAmount.Equal(amount) {
		s.logger.Info("Discount clamped",
			zap.Uint("order_id", id),
			zap.String("requested", amount.String()),
			zap.String("applied", order.DiscountAmount.StringFixed(2)))
	}
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "apply_discount",
		EntityID: orderEntity(id),
		ActorID:  p.UserID,
		Data: map[string]interface{}{
			"discount_amount": order.DiscountAmount.StringFixed(2),
			"total_ttc":       order.TotalTTC.StringFixed(2),
		},
	})
	return order, nil
}

// DeleteOrder removes the order and all of its items.
func (s *OrderService) DeleteOrder(ctx context.Context, p *Principal, id uint) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	err := s.deps.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.deps.Orders.Delete(ctx, id)
	})
	if err != nil {
		return storeError(err, fmt.Sprintf("order %d", id))
	}
	s.invalidate(ctx, id)
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "delete_order",
		EntityID: orderEntity(id),
		ActorID:  p.UserID,
	})
	return nil
}

// History returns the audit trail of an order, newest first.
func (s *OrderService) History(ctx context.Context, p *Principal, id uint, limit int64) ([]*repository.AuditLog, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if s.deps.Audit == nil {
		return []*repository.AuditLog{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	logs, err := s.deps.Audit.Find(ctx, orderEntity(id), limit)
	if err != nil {
		return nil, fmt.Errorf("order %d history: %w", id, err)
	}
	return logs, nil
}
