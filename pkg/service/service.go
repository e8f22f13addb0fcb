// Package service holds the portal's business operations: catalog, pricing-backed order
// lifecycle, accounts, sessions and messaging. Every operation takes the calling Principal
// and enforces the authorization tier it belongs to.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/clock"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var errCacheDisabled = errors.New("cache disabled")

// Deps are the collaborators shared by all services. Caches, Notifier, Clock and Logger
// are optional.
type Deps struct {
	Users    repository.UserRepository
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Messages repository.MessageRepository
	Audit    repository.AuditRepository
	Tx       repository.TxManager

	OrderCache   OrderCache
	CatalogCache CatalogCache
	Notifier     Notifier

	Tokens *auth.TokenManager
	Clock  clock.Clock
	Logger *zap.Logger
	Order  config.OrderConfig
}

type Services struct {
	Auth     *AuthService
	Catalog  *CatalogService
	Orders   *OrderService
	Users    *UserService
	Messages *MessageService
}

func New(d Deps) *Services {
	if d.OrderCache == nil {
		d.OrderCache = noCache{}
	}
	if d.CatalogCache == nil {
		d.CatalogCache = noCache{}
	}
	if d.Notifier == nil {
		d.Notifier = noNotifier{}
	}
	if d.Clock == nil {
		d.Clock = clock.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Order.NumberPrefix == "" {
		d.Order.NumberPrefix = "CMD"
	}
	if d.Order.NumberWidth < 1 {
		d.Order.NumberWidth = 3
	}
	if d.Order.MaxNumberAttempts < 1 {
		d.Order.MaxNumberAttempts = 5
	}

	b := &base{deps: d, validate: newValidator()}
	return &Services{
		Auth:     &AuthService{base: b, logger: d.Logger.Named("auth")},
		Catalog:  &CatalogService{base: b, logger: d.Logger.Named("catalog")},
		Orders:   &OrderService{base: b, logger: d.Logger.Named("orders")},
		Users:    &UserService{base: b, logger: d.Logger.Named("users")},
		Messages: &MessageService{base: b, logger: d.Logger.Named("messages")},
	}
}

type base struct {
	deps     Deps
	validate *validator.Validate
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// check runs struct validation and reports the first failing field.
func (b *base) check(v interface{}) error {
	err := b.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return invalid("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return invalid("%s must satisfy %s", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// audit records entry. Failures are logged and never fail the operation.
func (b *base) audit(ctx context.Context, logger *zap.Logger, entry models.AuditEntry) {
	if b.deps.Audit == nil {
		return
	}
	if err := b.deps.Audit.Record(ctx, entry); err != nil {
		logger.Warn("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

func actorID(p *Principal) uint {
	if p == nil {
		return 0
	}
	return p.UserID
}
