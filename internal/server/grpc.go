package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/order-extractor/internal/common"
)

const requestIDHeader = "x-request-id"

// NewGRPCServer builds a server with the extraction service, health and reflection
// registered. The returned health server is already SERVING.
func NewGRPCServer(svc ExtractionServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(requestLogger(logger)))
	grpcServer := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	RegisterExtractionServer(grpcServer, svc)
	return grpcServer, hs
}

// requestLogger tags each call with a request id (taken from x-request-id when sent) and
// logs its outcome.
func requestLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDHeader); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, requestID)
		ctx = common.WithTraceID(ctx, requestID)

		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"request_id", requestID,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
