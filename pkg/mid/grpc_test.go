package mid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUnaryLoggerPassesThroughResponseAndError(t *testing.T) {
	wantErr := status.Error(codes.Internal, "boom")
	interceptor := UnaryLogger(testLogger())

	resp, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/svc/Method"},
		func(ctx context.Context, req any) (any, error) {
			return "resp", wantErr
		})
	if resp != "resp" {
		t.Fatalf("expected response to pass through, got %v", resp)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error to pass through, got %v", err)
	}
}

func TestUnaryRecoverConvertsPanicToInternalStatus(t *testing.T) {
	interceptor := UnaryRecover(testLogger())

	_, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/svc/Method"},
		func(ctx context.Context, req any) (any, error) {
			panic("kaboom")
		})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected codes.Internal, got %v", err)
	}
}

func TestUnaryRecoverNoPanicPassesThrough(t *testing.T) {
	interceptor := UnaryRecover(testLogger())

	resp, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/svc/Method"},
		func(ctx context.Context, req any) (any, error) {
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("got %v, want ok", resp)
	}
}

type fakeServerStream struct {
	grpc.ServerStream
}

func TestStreamLoggerPassesThroughError(t *testing.T) {
	wantErr := status.Error(codes.Unavailable, "down")
	interceptor := StreamLogger(testLogger())

	err := interceptor("srv", &fakeServerStream{}, &grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv any, ss grpc.ServerStream) error {
			return wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error to pass through, got %v", err)
	}
}

func TestStreamRecoverConvertsPanicToInternalStatus(t *testing.T) {
	interceptor := StreamRecover(testLogger())

	err := interceptor("srv", &fakeServerStream{}, &grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv any, ss grpc.ServerStream) error {
			panic("kaboom")
		})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected codes.Internal, got %v", err)
	}
}

func TestStreamRecoverNoPanicPassesThrough(t *testing.T) {
	interceptor := StreamRecover(testLogger())

	err := interceptor("srv", &fakeServerStream{}, &grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv any, ss grpc.ServerStream) error {
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServerOTelReturnsServerOption(t *testing.T) {
	if opt := ServerOTel(); opt == nil {
		t.Fatal("expected a non-nil grpc.ServerOption")
	}
}
