package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// OrderServer exposes the order lifecycle over gRPC.
type OrderServer struct {
	orders *service.OrderService
	logger *zap.Logger
	config *config.Config

	srv    *grpc.Server
	health *health.Server
}

var _ OrderServiceServer = (*OrderServer)(nil)

func NewOrderServer(cfg *config.Config, orders *service.OrderService, auth Authenticator, logger *zap.Logger) *OrderServer {
	s := &OrderServer{
		orders: orders,
		logger: logger,
		config: cfg,
		health: health.NewServer(),
	}
	s.srv = grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		AuthInterceptor(auth, logger),
	))
	RegisterOrderServiceServer(s.srv, s)
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.health.SetServingStatus(orderServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s.srv)
	return s
}

func (s *OrderServer) Start() error {
	addr := s.config.Server.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.logger.Info("Order service started", zap.String("address", addr))

	return s.Serve(lis)
}

func (s *OrderServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop reports NOT_SERVING, then waits for in-flight calls to finish.
func (s *OrderServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func (s *OrderServer) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	order, err := s.orders.CreateOrder(ctx, service.PrincipalFrom(ctx), service.CreateOrderInput{
		Items: req.Items,
		Notes: req.Notes,
	})
	if err != nil {
		return nil, toStatus(s.logger, "CreateOrder", err)
	}
	return &CreateOrderResponse{OrderID: order.ID, OrderNumber: order.OrderNumber, Order: order}, nil
}

func (s *OrderServer) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	order, err := s.orders.GetOrder(ctx, service.PrincipalFrom(ctx), req.ID)
	if err != nil {
		return nil, toStatus(s.logger, "GetOrder", err)
	}
	return &OrderResponse{Order: order}, nil
}

func (s *OrderServer) ListOrders(ctx context.Context, req *ListOrdersRequest) (*ListOrdersResponse, error) {
	p := service.PrincipalFrom(ctx)
	list := s.orders.ListMine
	if req.All {
		list = s.orders.ListAll
	}
	orders, err := list(ctx, p)
	if err != nil {
		return nil, toStatus(s.logger, "ListOrders", err)
	}
	return &ListOrdersResponse{Orders: orders}, nil
}

func (s *OrderServer) UpdateOrderStatus(ctx context.Context, req *UpdateOrderStatusRequest) (*OrderResponse, error) {
	order, err := s.orders.UpdateStatus(ctx, service.PrincipalFrom(ctx), req.ID, req.Status)
	if err != nil {
		return nil, toStatus(s.logger, "UpdateOrderStatus", err)
	}
	return &OrderResponse{Order: order}, nil
}

func (s *OrderServer) UpdatePayment(ctx context.Context, req *UpdatePaymentRequest) (*OrderResponse, error) {
	order, err := s.orders.UpdatePayment(ctx, service.PrincipalFrom(ctx), req.ID, service.PaymentUpdate{
		Method: req.PaymentMethod,
		Status: req.PaymentStatus,
	})
	if err != nil {
		return nil, toStatus(s.logger, "UpdatePayment", err)
	}
	return &OrderResponse{Order: order}, nil
}

func (s *OrderServer) ApplyDiscount(ctx context.Context, req *ApplyDiscountRequest) (*OrderResponse, error) {
	order, err := s.orders.ApplyDiscount(ctx, service.PrincipalFrom(ctx), req.ID, req.Amount)
	if err != nil {
		return nil, toStatus(s.logger, "ApplyDiscount", err)
	}
	return &OrderResponse{Order: order}, nil
}

func (s *OrderServer) DeleteOrder(ctx context.Context, req *DeleteOrderRequest) (*DeleteOrderResponse, error) {
	if err := s.orders.DeleteOrder(ctx, service.PrincipalFrom(ctx), req.ID); err != nil {
		return nil, toStatus(s.logger, "DeleteOrder", err)
	}
	return &DeleteOrderResponse{}, nil
}
