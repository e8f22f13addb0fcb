package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gemmoherb/portal/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-process implementation of every repository. Only tests use it;
// the binaries always run against MySQL. Unique constraints mirror the MySQL schema.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID    uint
	nextProductID uint
	nextOrderID   uint
	nextItemID    uint
	nextMessageID uint

	users    map[uint]models.User
	products map[uint]models.Product
	orders   map[uint]models.Order
	messages map[uint]models.Message
	audit    []*AuditLog

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextUserID:    1,
		nextProductID: 1,
		nextOrderID:   1,
		nextItemID:    1,
		nextMessageID: 1,
		users:         make(map[uint]models.User),
		products:      make(map[uint]models.Product),
		orders:        make(map[uint]models.Order),
		messages:      make(map[uint]models.Message),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RLock()
	}
}

func (m *MemoryStore) runlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *MemoryStore) wlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Lock()
	}
}

func (m *MemoryStore) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Unlock()
	}
}

func (m *MemoryStore) Users() *MemoryUsers       { return &MemoryUsers{m} }
func (m *MemoryStore) Products() *MemoryProducts { return &MemoryProducts{m} }
func (m *MemoryStore) Orders() *MemoryOrders     { return &MemoryOrders{m} }
func (m *MemoryStore) Messages() *MemoryMessages { return &MemoryMessages{m} }
func (m *MemoryStore) Audit() *MemoryAudit       { return &MemoryAudit{m} }
func (m *MemoryStore) Tx() *MemoryTx             { return &MemoryTx{m} }

// MemoryTx serializes transactions behind the store's write lock. Repositories
// called with the transaction context skip their own locking.
type MemoryTx struct{ store *MemoryStore }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	snapshot := tx.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		tx.store.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	nextUserID, nextProductID, nextOrderID, nextItemID, nextMessageID uint

	users    map[uint]models.User
	products map[uint]models.Product
	orders   map[uint]models.Order
	messages map[uint]models.Message
}

func (m *MemoryStore) snapshot() memorySnapshot {
	s := memorySnapshot{
		nextUserID:    m.nextUserID,
		nextProductID: m.nextProductID,
		nextOrderID:   m.nextOrderID,
		nextItemID:    m.nextItemID,
		nextMessageID: m.nextMessageID,
		users:         make(map[uint]models.User, len(m.users)),
		products:      make(map[uint]models.Product, len(m.products)),
		orders:        make(map[uint]models.Order, len(m.orders)),
		messages:      make(map[uint]models.Message, len(m.messages)),
	}
	for k, v := range m.users {
		s.users[k] = v
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.orders {
		s.orders[k] = copyOrder(v)
	}
	for k, v := range m.messages {
		s.messages[k] = v
	}
	return s
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.nextUserID, m.nextProductID, m.nextOrderID = s.nextUserID, s.nextProductID, s.nextOrderID
	m.nextItemID, m.nextMessageID = s.nextItemID, s.nextMessageID
	m.users, m.products, m.orders, m.messages = s.users, s.products, s.orders, s.messages
}

func copyOrder(o models.Order) models.Order {
	if o.Items != nil {
		items := make([]models.OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// Users

type MemoryUsers struct{ store *MemoryStore }

var _ UserRepository = (*MemoryUsers)(nil)

func (r *MemoryUsers) Create(ctx context.Context, u *models.User) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrDuplicate
		}
	}
	u.ID = m.nextUserID
	m.nextUserID++
	now := m.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUsers) List(ctx context.Context) ([]models.User, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryUsers) Update(ctx context.Context, u *models.User) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = m.now()
	m.users[u.ID] = *u
	return nil
}

func (r *MemoryUsers) Delete(ctx context.Context, id uint) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Products

type MemoryProducts struct{ store *MemoryStore }

var _ ProductRepository = (*MemoryProducts)(nil)

func (m *MemoryStore) referenceTaken(ref *string, exceptID uint) bool {
	if ref == nil {
		return false
	}
	for _, p := range m.products {
		if p.ID != exceptID && p.Reference != nil && *p.Reference == *ref {
			return true
		}
	}
	return false
}

func (r *MemoryProducts) Create(ctx context.Context, p *models.Product) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if m.referenceTaken(p.Reference, 0) {
		return ErrDuplicate
	}
	p.ID = m.nextProductID
	m.nextProductID++
	now := m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = *p
	return nil
}

func (r *MemoryProducts) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryProducts) GetByReference(ctx context.Context, reference string) (*models.Product, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	for _, p := range m.products {
		if p.Reference != nil && *p.Reference == reference {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryProducts) ListActive(ctx context.Context) ([]models.Product, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryProducts) Update(ctx context.Context, p *models.Product) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.products[p.ID]; !ok {
		return ErrNotFound
	}
	if m.referenceTaken(p.Reference, p.ID) {
		return ErrDuplicate
	}
	p.UpdatedAt = m.now()
	m.products[p.ID] = *p
	return nil
}

// Orders

type MemoryOrders struct{ store *MemoryStore }

var _ OrderRepository = (*MemoryOrders)(nil)

func (r *MemoryOrders) Create(ctx context.Context, o *models.Order) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicate
		}
	}
	o.ID = m.nextOrderID
	m.nextOrderID++
	for i := range o.Items {
		o.Items[i].ID = m.nextItemID
		o.Items[i].OrderID = o.ID
		m.nextItemID++
	}
	now := m.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}
	m.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *MemoryOrders) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyOrder(o)
	return &cp, nil
}

func (r *MemoryOrders) list(ctx context.Context, keep func(models.Order) bool) []models.Order {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]models.Order, 0)
	for _, o := range m.orders {
		if keep(o) {
			o.Items = nil
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *MemoryOrders) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return r.list(ctx, func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *MemoryOrders) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, func(models.Order) bool { return true }), nil
}

func (r *MemoryOrders) LatestNumber(ctx context.Context, prefix string) (string, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	latest := ""
	var highest uint64
	for _, o := range m.orders {
		n, ok := numberSuffix(o.OrderNumber, prefix)
		if !ok {
			continue
		}
		if latest == "" || n > highest {
			latest, highest = o.OrderNumber, n
		}
	}
	return latest, nil
}

func (r *MemoryOrders) Update(ctx context.Context, o *models.Order) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	existing, ok := m.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = o.Status
	existing.PaymentMethod = o.PaymentMethod
	existing.PaymentStatus = o.PaymentStatus
	existing.DiscountAmount = o.DiscountAmount
	existing.TotalTTC = o.TotalTTC
	existing.UpdatedAt = o.UpdatedAt
	if existing.UpdatedAt.IsZero() {
		existing.UpdatedAt = m.now()
	}
	m.orders[o.ID] = existing
	return nil
}

func (r *MemoryOrders) Delete(ctx context.Context, id uint) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

// CountItems reports how many order items reference orderID.
func (r *MemoryOrders) CountItems(ctx context.Context, orderID uint) int {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	o, ok := m.orders[orderID]
	if !ok {
		return 0
	}
	return len(o.Items)
}

// Messages

type MemoryMessages struct{ store *MemoryStore }

var _ MessageRepository = (*MemoryMessages)(nil)

func (r *MemoryMessages) Create(ctx context.Context, msg *models.Message) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	msg.ID = m.nextMessageID
	m.nextMessageID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	m.messages[msg.ID] = *msg
	return nil
}

func (r *MemoryMessages) Conversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]models.Message, 0)
	for _, msg := range m.messages {
		if (msg.SenderID == a && msg.RecipientID == b) || (msg.SenderID == b && msg.RecipientID == a) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryMessages) MarkRead(ctx context.Context, recipientID, senderID uint) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	for id, msg := range m.messages {
		if msg.RecipientID == recipientID && msg.SenderID == senderID && !msg.IsRead {
			msg.IsRead = true
			m.messages[id] = msg
		}
	}
	return nil
}

func (r *MemoryMessages) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	var n int64
	for _, msg := range m.messages {
		if msg.RecipientID == recipientID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

// Audit

type MemoryAudit struct{ store *MemoryStore }

var _ AuditRepository = (*MemoryAudit)(nil)

func (r *MemoryAudit) Record(ctx context.Context, entry models.AuditEntry) error {
	m := r.store
	m.wlock(ctx)
	defer m.wunlock(ctx)
	m.audit = append(m.audit, newAuditLog("memory", entry, m.now()))
	return nil
}

func (r *MemoryAudit) Find(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	m := r.store
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]*AuditLog, 0)
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].EntityID != entityID {
			continue
		}
		cp := *m.audit[i]
		cp.Data = bson.M{}
		for k, v := range m.audit[i].Data {
			cp.Data[k] = v
		}
		out = append(out, &cp)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}
