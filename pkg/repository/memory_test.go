package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gemmoherb/portal/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(number string, userID uint) *models.Order {
	return &models.Order{
		UserID:      userID,
		OrderNumber: number,
		Status:      models.OrderStatusPending,
		SubtotalHT:  decimal.RequireFromString("75.40"),
		TaxAmount:   decimal.RequireFromString("14.33"),
		TotalTTC:    decimal.RequireFromString("89.73"),
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Macérat de calendula", Quantity: 2,
				PriceHT: decimal.RequireFromString("37.70"), TaxRate: decimal.RequireFromString("19.00")},
		},
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	u := &models.User{Username: "Pharma1", Name: "B", Role: models.RoleUser, Status: models.UserStatusPending}
	require.NoError(t, users.Create(ctx, u))
	assert.Equal(t, uint(1), u.ID)

	t.Run("username is unique regardless of case", func(t *testing.T) {
		err := users.Create(ctx, &models.User{Username: "pharma1"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("lookup by username", func(t *testing.T) {
		got, err := users.GetByUsername(ctx, "PHARMA1")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = users.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is ordered by name", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, &models.User{Username: "a", Name: "A"}))
		list, err := users.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "A", list[0].Name)
	})

	t.Run("update and delete", func(t *testing.T) {
		u.Status = models.UserStatusApproved
		require.NoError(t, users.Update(ctx, u))
		got, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, models.UserStatusApproved, got.Status)

		require.NoError(t, users.Delete(ctx, u.ID))
		assert.ErrorIs(t, users.Delete(ctx, u.ID), ErrNotFound)
		assert.ErrorIs(t, users.Update(ctx, u), ErrNotFound)
	})
}

func TestMemoryProducts(t *testing.T) {
	ctx := context.Background()
	products := NewMemoryStore().Products()

	ref := "MAC-001"
	p1 := &models.Product{Reference: &ref, Name: "Zeta", Category: models.CategoryMacerat, IsActive: true, InStock: true}
	p2 := &models.Product{Name: "Alpha", Category: models.CategoryMacerat, IsActive: true}
	p3 := &models.Product{Name: "Lavande", Category: models.CategoryEssentialOil, IsActive: true}
	hidden := &models.Product{Name: "Old", Category: models.CategoryMacerat}
	for _, p := range []*models.Product{p1, p2, p3, hidden} {
		require.NoError(t, products.Create(ctx, p))
	}

	dup := "MAC-001"
	assert.ErrorIs(t, products.Create(ctx, &models.Product{Reference: &dup}), ErrDuplicate)

	list, err := products.ListActive(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Lavande", "Alpha", "Zeta"}, names)

	p2.Reference = &dup
	assert.ErrorIs(t, products.Update(ctx, p2), ErrDuplicate)

	p1.InStock = false
	require.NoError(t, products.Update(ctx, p1))
	got, err := products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock)
}

func TestMemoryOrders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := store.Orders()

	o := newTestOrder("CMD-001", 7)
	require.NoError(t, orders.Create(ctx, o))
	assert.NotZero(t, o.ID)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.Equal(t, 1, orders.CountItems(ctx, o.ID))

	t.Run("order number is unique", func(t *testing.T) {
		assert.ErrorIs(t, orders.Create(ctx, newTestOrder("CMD-001", 8)), ErrDuplicate)
	})

	t.Run("latest number compares numeric suffixes", func(t *testing.T) {
		s := NewMemoryStore().Orders()
		latest, err := s.LatestNumber(ctx, "CMD")
		require.NoError(t, err)
		assert.Empty(t, latest)

		for _, n := range []string{"CMD-998", "CMD-1000", "CMD-999", "FAC-5000", "CMD-K3X9QZ", "CMD-ZZZZZZZ", "CMD-"} {
			require.NoError(t, s.Create(ctx, newTestOrder(n, 1)))
		}
		latest, err = s.LatestNumber(ctx, "CMD")
		require.NoError(t, err)
		assert.Equal(t, "CMD-1000", latest)
	})

	t.Run("latest number ignores non-numeric suffixes", func(t *testing.T) {
		s := NewMemoryStore().Orders()
		require.NoError(t, s.Create(ctx, newTestOrder("CMD-K3X9QZ", 1)))
		latest, err := s.LatestNumber(ctx, "CMD")
		require.NoError(t, err)
		assert.Empty(t, latest)

		require.NoError(t, s.Create(ctx, newTestOrder("CMD-0042", 1)))
		latest, err = s.LatestNumber(ctx, "CMD")
		require.NoError(t, err)
		assert.Equal(t, "CMD-0042", latest)
	})

	t.Run("update never touches items", func(t *testing.T) {
		change := &models.Order{ID: o.ID, Status: models.OrderStatusShipped, PaymentMethod: models.PaymentMethodCash,
			PaymentStatus: models.PaymentStatusPaid, DiscountAmount: decimal.NewFromInt(10), TotalTTC: decimal.RequireFromString("79.73")}
		require.NoError(t, orders.Update(ctx, change))

		got, err := orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, got.Status)
		assert.True(t, got.TotalTTC.Equal(decimal.RequireFromString("79.73")))
		assert.True(t, got.SubtotalHT.Equal(decimal.RequireFromString("75.40")))
		assert.Len(t, got.Items, 1)
	})

	t.Run("lists omit items and filter by owner", func(t *testing.T) {
		require.NoError(t, orders.Create(ctx, newTestOrder("CMD-002", 8)))
		mine, err := orders.ListByUser(ctx, 7)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Nil(t, mine[0].Items)

		all, err := orders.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete cascades to items", func(t *testing.T) {
		require.NoError(t, orders.Delete(ctx, o.ID))
		assert.Equal(t, 0, orders.CountItems(ctx, o.ID))
		_, err := orders.GetByID(ctx, o.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, orders.Delete(ctx, o.ID), ErrNotFound)
	})
}

func TestMemoryTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := store.Orders()

	boom := errors.New("boom")
	err := store.Tx().WithTransaction(ctx, func(ctx context.Context) error {
		if err := orders.Create(ctx, newTestOrder("CMD-001", 1)); err != nil {
			return err
		}
		latest, err := orders.LatestNumber(ctx, "CMD")
		if err != nil {
			return err
		}
		assert.Equal(t, "CMD-001", latest)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, store.Tx().WithTransaction(ctx, func(ctx context.Context) error {
		return orders.Create(ctx, newTestOrder("CMD-001", 1))
	}))
	all, err = orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryMessages(t *testing.T) {
	ctx := context.Background()
	messages := NewMemoryStore().Messages()

	for i := 0; i < 3; i++ {
		require.NoError(t, messages.Create(ctx, &models.Message{SenderID: 1, RecipientID: 2, Content: fmt.Sprintf("m%d", i)}))
	}
	require.NoError(t, messages.Create(ctx, &models.Message{SenderID: 2, RecipientID: 1, Content: "reply"}))
	require.NoError(t, messages.Create(ctx, &models.Message{SenderID: 3, RecipientID: 2, Content: "other"}))

	conv, err := messages.Conversation(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, conv, 4)
	assert.Equal(t, "m0", conv[0].Content)
	assert.Equal(t, "reply", conv[3].Content)

	n, err := messages.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	require.NoError(t, messages.MarkRead(ctx, 2, 1))
	n, err = messages.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryAudit(t *testing.T) {
	ctx := context.Background()
	audit := NewMemoryStore().Audit()

	for _, action := range []string{"order.created", "order.status_updated", "order.payment_updated"} {
		require.NoError(t, audit.Record(ctx, models.AuditEntry{Action: action, EntityID: "order:1", ActorID: 9,
			Data: map[string]interface{}{"action": action}}))
	}
	require.NoError(t, audit.Record(ctx, models.AuditEntry{Action: "order.created", EntityID: "order:2"}))

	logs, err := audit.Find(ctx, "order:1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "order.payment_updated", logs[0].Action)
	assert.Equal(t, uint(9), logs[0].ActorID)

	logs[0].Data["action"] = "changed"
	again, err := audit.Find(ctx, "order:1", 0)
	require.NoError(t, err)
	assert.Len(t, again, 3)
	assert.Equal(t, "order.payment_updated", again[0].Data["action"])
}

func TestNumberSuffix(t *testing.T) {
	cases := []struct {
		number string
		want   uint64
		ok     bool
	}{
		{"CMD-001", 1, true},
		{"CMD-1000", 1000, true},
		{"CMD-K3X9QZ", 0, false},
		{"CMD-+5", 0, false},
		{"CMD-", 0, false},
		{"FAC-007", 0, false},
		{"CMD-99999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, ok := numberSuffix(tc.number, "CMD")
		assert.Equal(t, tc.ok, ok, tc.number)
		assert.Equal(t, tc.want, got, tc.number)
	}
	assert.Equal(t, `^CMD\.X-[0-9]+$`, numberRegexp("CMD.X"))
}
