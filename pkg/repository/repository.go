package repository

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gemmoherb/portal/pkg/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrCacheMiss = errors.New("cache miss")
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id uint) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByReference(ctx context.Context, reference string) (*models.Product, error)
	// ListActive returns active products ordered by category, then name.
	ListActive(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
}

type OrderRepository interface {
	// Create inserts the order and its items. A taken order number yields ErrDuplicate.
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// LatestNumber returns the order number carrying prefix with the highest numeric
	// suffix, or "" when there is none.
	LatestNumber(ctx context.Context, prefix string) (string, error)
	// Update writes status, payment and amount columns. Items are never rewritten.
	Update(ctx context.Context, o *models.Order) error
	// Delete removes the order's items, then the order.
	Delete(ctx context.Context, id uint) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// Conversation returns messages exchanged between a and b, oldest first.
	Conversation(ctx context.Context, a, b uint) ([]models.Message, error)
	MarkRead(ctx context.Context, recipientID, senderID uint) error
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
}

type AuditRepository interface {
	Record(ctx context.Context, entry models.AuditEntry) error
	Find(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error)
}

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// numberRegexp matches numbers issued under prefix whose suffix is all digits.
func numberRegexp(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "-[0-9]+$"
}

// numberSuffix parses the numeric suffix of number. Numbers under another prefix or with
// a suffix that is not all digits report false.
func numberSuffix(number, prefix string) (uint64, bool) {
	suffix, ok := strings.CutPrefix(number, prefix+"-")
	if !ok || suffix == "" {
		return 0, false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
