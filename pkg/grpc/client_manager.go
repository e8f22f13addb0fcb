package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ClientManager owns the connection to the order service.
type ClientManager struct {
	config    *config.Config
	discovery *discovery.ServiceDiscovery
	logger    *zap.Logger

	orderClient OrderClient
	orderConn   *grpc.ClientConn
}

// NewClientManager creates a client manager. disc may be nil, in which case the
// configured server address is used.
func NewClientManager(cfg *config.Config, logger *zap.Logger, disc *discovery.ServiceDiscovery) *ClientManager {
	return &ClientManager{
		config:    cfg,
		discovery: disc,
		logger:    logger,
	}
}

// resolve picks the order service address, from etcd when available.
func (m *ClientManager) resolve() string {
	target := fmt.Sprintf("localhost:%d", m.config.Server.Port)
	if m.discovery == nil {
		return target
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	instances, err := m.discovery.Discover(ctx, m.config.Server.Name)
	if err == nil && len(instances) > 0 {
		target = instances[0].Addr()
		m.logger.Info("Discovered order service", zap.String("address", target))
	} else {
		m.logger.Info("Using default address for order service", zap.String("address", target), zap.Error(err))
	}
	return target
}

// Connect dials the order service and waits until it reports SERVING.
func (m *ClientManager) Connect(ctx context.Context, opts ...grpc.DialOption) error {
	target := m.resolve()
	m.logger.Info("Connecting to order service", zap.String("target", target))

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to order service: %w", err)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: orderServiceName})
	if err != nil {
		conn.Close()
		return fmt.Errorf("order service health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		conn.Close()
		return fmt.Errorf("order service is %s", resp.GetStatus())
	}

	m.orderConn = conn
	m.orderClient = NewOrderClient(conn)

	m.logger.Info("Successfully connected to order service")
	return nil
}

func (m *ClientManager) OrderClient() OrderClient {
	return m.orderClient
}

func (m *ClientManager) Close() error {
	if m.orderConn == nil {
		return nil
	}
	if err := m.orderConn.Close(); err != nil {
		return fmt.Errorf("order connection close error: %w", err)
	}
	return nil
}
