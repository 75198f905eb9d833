// Package mid provides gRPC server interceptors: request logging, panic
// recovery, and OpenTelemetry instrumentation, for wiring onto a
// grpc.NewServer via grpc.ChainUnaryInterceptor/ChainStreamInterceptor.
package mid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryLogger returns a unary interceptor logging method, code, and duration.
func UnaryLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("rpc",
			"method", info.FullMethod,
			"code", status.Code(err),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

// StreamLogger is the streaming counterpart of UnaryLogger.
func StreamLogger(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		log.Info("rpc",
			"method", info.FullMethod,
			"code", status.Code(err),
			"duration", time.Since(start),
		)
		return err
	}
}

// UnaryRecover returns a unary interceptor converting panics into an
// Internal status error.
func UnaryRecover(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", "method", info.FullMethod, "error", fmt.Sprintf("%v", r))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// StreamRecover is the streaming counterpart of UnaryRecover.
func StreamRecover(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", "method", info.FullMethod, "error", fmt.Sprintf("%v", r))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(srv, ss)
	}
}

// ServerOTel returns the grpc.ServerOption that instruments every unary and
// streaming RPC with OpenTelemetry spans.
func ServerOTel() grpc.ServerOption {
	return grpc.StatsHandler(otelgrpc.NewServerHandler())
}
