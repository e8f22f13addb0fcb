package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/gemmoherb/portal/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationKey = "authorization"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(authorizationKey) {
		if token, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// AuthInterceptor resolves the bearer token to a principal. Calls without a token run
// anonymously and are refused by the operations that need a caller.
func AuthInterceptor(auth Authenticator, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := bearerToken(ctx)
		if token == "" {
			return handler(ctx, req)
		}
		p, err := auth.Authenticate(ctx, token)
		if err != nil {
			return nil, toStatus(logger, info.FullMethod, err)
		}
		return handler(service.WithPrincipal(ctx, p), req)
	}
}

func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("RPC",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))
		return resp, err
	}
}
