package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/clock"
	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/repository"
	"github.com/gemmoherb/portal/pkg/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const testPassword = "secret123"

type testEnv struct {
	svc     *service.Services
	store   *repository.MemoryStore
	lis     *bufconn.Listener
	product *models.Product
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	tokens, err := auth.NewTokenManager("test-secret", time.Hour, clk)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	svc := service.New(service.Deps{
		Users:    store.Users(),
		Products: store.Products(),
		Orders:   store.Orders(),
		Messages: store.Messages(),
		Audit:    store.Audit(),
		Tx:       store.Tx(),
		Tokens:   tokens,
		Clock:    clk,
	})
	env := &testEnv{svc: svc, store: store, lis: bufconn.Listen(1 << 20)}

	admin := env.seedUser(t, "admin", models.RoleAdmin)
	rate := decimal.RequireFromString("19")
	env.product, err = svc.Catalog.Create(context.Background(), service.PrincipalFromUser(admin), service.ProductInput{
		Name:     "Macérât de figuier",
		Category: models.CategoryMacerat,
		PriceHT:  decimal.RequireFromString("25.00"),
		TaxRate:  &rate,
	})
	require.NoError(t, err)

	cfg := &config.Config{Server: config.ServerConfig{Name: "order-service"}}
	srv := NewOrderServer(cfg, svc.Orders, svc.Auth, zap.NewNop())
	go func() { _ = srv.Serve(env.lis) }()
	t.Cleanup(srv.Stop)
	return env
}

func (e *testEnv) seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Password:     hash,
		Name:         "Pharmacie " + username,
		Role:         role,
		Status:       models.UserStatusApproved,
		PharmacyName: "Pharmacie " + username,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	res, err := e.svc.Auth.Login(context.Background(), username, testPassword)
	require.NoError(t, err)
	return res.Token
}

// dial opens a client connection; an empty token calls anonymously.
func (e *testEnv) dial(t *testing.T, token string) *grpc.ClientConn {
	t.Helper()
	opts := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return e.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if token != "" {
		opts = append(opts, WithToken(token))
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOrderServiceRoundTrip(t *testing.T) {
	env := setupServer(t)
	env.seedUser(t, "pharma1", models.RoleUser)
	ctx := context.Background()

	client := NewOrderClient(env.dial(t, env.login(t, "pharma1")))

	created, err := client.CreateOrder(ctx, &CreateOrderRequest{
		Items: []service.ItemRequest{{ProductID: env.product.ID, Quantity: 2}},
		Notes: "Livraison mardi",
	})
	require.NoError(t, err)
	assert.Equal(t, "CMD-001", created.OrderNumber)
	require.NotNil(t, created.Order)
	assert.True(t, created.Order.SubtotalHT.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, created.Order.TaxAmount.Equal(decimal.RequireFromString("9.50")))
	assert.True(t, created.Order.TotalTTC.Equal(decimal.RequireFromString("59.50")))

	got, err := client.GetOrder(ctx, &GetOrderRequest{ID: created.OrderID})
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, got.Order.OrderNumber)
	require.Len(t, got.Order.Items, 1)
	assert.Equal(t, 2, got.Order.Items[0].Quantity)

	mine, err := client.ListOrders(ctx, &ListOrdersRequest{})
	require.NoError(t, err)
	assert.Len(t, mine.Orders, 1)
}

func TestOrderServiceAuthorization(t *testing.T) {
	env := setupServer(t)
	env.seedUser(t, "pharma1", models.RoleUser)
	env.seedUser(t, "pharma2", models.RoleUser)
	ctx := context.Background()

	owner := NewOrderClient(env.dial(t, env.login(t, "pharma1")))
	created, err := owner.CreateOrder(ctx, &CreateOrderRequest{
		Items: []service.ItemRequest{{ProductID: env.product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		_, err := NewOrderClient(env.dial(t, "")).GetOrder(ctx, &GetOrderRequest{ID: created.OrderID})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.True(t, errors.Is(FromStatus(err), service.ErrUnauthorized))
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := NewOrderClient(env.dial(t, "not-a-token")).ListOrders(ctx, &ListOrdersRequest{})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("other pharmacy", func(t *testing.T) {
		other := NewOrderClient(env.dial(t, env.login(t, "pharma2")))
		_, err := other.GetOrder(ctx, &GetOrderRequest{ID: created.OrderID})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
		assert.True(t, errors.Is(FromStatus(err), service.ErrForbidden))

		_, err = other.ApplyDiscount(ctx, &ApplyDiscountRequest{ID: created.OrderID, Amount: decimal.NewFromInt(5)})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))

		_, err = other.ListOrders(ctx, &ListOrdersRequest{All: true})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := owner.GetOrder(ctx, &GetOrderRequest{ID: 9999})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := owner.CreateOrder(ctx, &CreateOrderRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestOrderServiceAdminOperations(t *testing.T) {
	env := setupServer(t)
	env.seedUser(t, "pharma1", models.RoleUser)
	ctx := context.Background()

	owner := NewOrderClient(env.dial(t, env.login(t, "pharma1")))
	created, err := owner.CreateOrder(ctx, &CreateOrderRequest{
		Items: []service.ItemRequest{{ProductID: env.product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	admin := NewOrderClient(env.dial(t, env.login(t, "admin")))

	discounted, err := admin.ApplyDiscount(ctx, &ApplyDiscountRequest{
		ID:     created.OrderID,
		Amount: decimal.RequireFromString("9.50"),
	})
	require.NoError(t, err)
	assert.True(t, discounted.Order.TotalTTC.Equal(decimal.RequireFromString("50.00")))

	confirmed, err := admin.UpdateOrderStatus(ctx, &UpdateOrderStatusRequest{ID: created.OrderID, Status: models.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Order.Status)

	_, err = admin.UpdateOrderStatus(ctx, &UpdateOrderStatusRequest{ID: created.OrderID, Status: "lost"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	paid := models.PaymentStatusPaid
	method := models.PaymentMethodCheck
	updated, err := admin.UpdatePayment(ctx, &UpdatePaymentRequest{ID: created.OrderID, PaymentMethod: &method, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.Order.PaymentStatus)
	assert.Equal(t, models.PaymentMethodCheck, updated.Order.PaymentMethod)

	all, err := admin.ListOrders(ctx, &ListOrdersRequest{All: true})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 1)

	_, err = admin.DeleteOrder(ctx, &DeleteOrderRequest{ID: created.OrderID})
	require.NoError(t, err)

	_, err = owner.GetOrder(ctx, &GetOrderRequest{ID: created.OrderID})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthCheck(t *testing.T) {
	env := setupServer(t)

	resp, err := healthpb.NewHealthClient(env.dial(t, "")).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: orderServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = healthpb.NewHealthClient(env.dial(t, "")).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: orderServiceName}, grpc.CallContentSubtype(codecName))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}

	data, err := c.Marshal(&healthpb.HealthCheckRequest{Service: "svc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"service":"svc"}`, string(data))

	var req healthpb.HealthCheckRequest
	require.NoError(t, c.Unmarshal(data, &req))
	assert.Equal(t, "svc", req.GetService())

	data, err = c.Marshal(&GetOrderRequest{ID: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(data))
}

func TestFromStatusPassesThroughUnknownErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, plain, FromStatus(plain))
	assert.Nil(t, FromStatus(nil))

	internal := status.Error(codes.Internal, "internal error")
	assert.Equal(t, internal, FromStatus(internal))

	conflict := FromStatus(status.Error(codes.AlreadyExists, "taken"))
	assert.True(t, errors.Is(conflict, service.ErrConflict))
	assert.Equal(t, "taken", conflict.Error())
}
