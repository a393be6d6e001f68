package interceptors

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

func fakeVerifier(token string) (identity.Identity, error) {
	if token == "good" {
		return identity.MustNew("factory-a"), nil
	}
	return identity.Identity{}, apperrors.New(apperrors.CodeUnauthenticated, "bad token")
}

func withAuthorization(value string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(AuthorizationHeader, value))
}

var info = &grpc.UnaryServerInfo{FullMethod: ledgerv1.LedgerService_RegisterProduct_FullMethodName}

func TestAuthInterceptorAttachesCaller(t *testing.T) {
	interceptor := AuthInterceptor(fakeVerifier, nil)
	var caller string
	_, err := interceptor(withAuthorization("Bearer good"), nil, info, func(ctx context.Context, req any) (any, error) {
		caller = requestctx.CallerFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if caller != "factory-a" {
		t.Fatalf("caller = %q, want factory-a", caller)
	}
}

func TestAuthInterceptorAllowsAnonymous(t *testing.T) {
	interceptor := AuthInterceptor(fakeVerifier, nil)
	called := false
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		called = true
		if got := requestctx.CallerFromContext(ctx); got != "" {
			t.Fatalf("caller = %q, want anonymous", got)
		}
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("interceptor err = %v, called = %v", err, called)
	}
}

func TestAuthInterceptorRejections(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier TokenVerifier
	}{
		{"bad token", "Bearer nope", fakeVerifier},
		{"wrong scheme", "Basic Zm9vOmJhcg==", fakeVerifier},
		{"empty bearer", "Bearer ", fakeVerifier},
		{"no verifier", "Bearer good", nil},
		{"verifier failure", "Bearer good", func(string) (identity.Identity, error) {
			return identity.Identity{}, errors.New("key store offline")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			interceptor := AuthInterceptor(tt.verifier, zap.New(core))
			_, err := interceptor(withAuthorization(tt.header), nil, info, func(ctx context.Context, req any) (any, error) {
				t.Fatal("handler should not run")
				return nil, nil
			})
			if status.Code(err) != codes.Unauthenticated {
				t.Fatalf("code = %v, want %v", status.Code(err), codes.Unauthenticated)
			}
			if logs.FilterMessage("caller token rejected").Len() != 1 {
				t.Fatalf("expected one rejection log, got %d", logs.Len())
			}
		})
	}
}

func TestAuditInterceptorLogsCall(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	interceptor := AuditInterceptor(zap.New(core))

	ctx := grpcmeta.WithRequestID(requestctx.WithCaller(context.Background(), "factory-a"), "req-1")
	req := &ledgerv1.RegisterProductRequest{ProductID: "PROD-001"}
	if _, err := interceptor(ctx, req, info, func(context.Context, any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("interceptor: %v", err)
	}

	entries := logs.FilterMessage("grpc call").AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	want := map[string]string{
		"method":      ledgerv1.LedgerService_RegisterProduct_FullMethodName,
		"method_kind": "write",
		"caller":      "factory-a",
		"code":        "OK",
		"request_id":  "req-1",
		"product_id":  "PROD-001",
	}
	for key, value := range want {
		if fields[key] != value {
			t.Fatalf("%s = %v, want %q", key, fields[key], value)
		}
	}
}

func TestAuditInterceptorLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	interceptor := AuditInterceptor(zap.New(core))
	readInfo := &grpc.UnaryServerInfo{FullMethod: ledgerv1.LedgerService_GetProduct_FullMethodName}

	_, _ = interceptor(context.Background(), nil, readInfo, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	_, _ = interceptor(context.Background(), nil, readInfo, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Internal, "boom")
	})

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("levels = %v, %v; want warn, error", entries[0].Level, entries[1].Level)
	}
	if entries[0].ContextMap()["caller"] != "anonymous" || entries[0].ContextMap()["method_kind"] != "read" {
		t.Fatalf("fields = %v", entries[0].ContextMap())
	}
}

func TestAuthInterceptorSkipsOtherServices(t *testing.T) {
	interceptor := AuthInterceptor(fakeVerifier, nil)
	healthInfo := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	called := false
	_, err := interceptor(withAuthorization("Bearer nope"), nil, healthInfo, func(context.Context, any) (any, error) {
		called = true
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("interceptor err = %v, called = %v", err, called)
	}
}
