// Package interceptors holds the unary server interceptors of the ledger
// gRPC server.
package interceptors

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

// AuthorizationHeader carries the caller's bearer token.
const AuthorizationHeader = "authorization"

// TokenVerifier resolves a bearer token to the caller it names.
type TokenVerifier func(token string) (identity.Identity, error)

// AuthInterceptor attaches the verified caller of ledger service calls to the
// request context. Other services, such as health, pass through untouched.
// Calls without a token proceed anonymously and handlers decide whether an
// anonymous caller is acceptable. A token that fails verification rejects the
// call. So does any token when verifier is nil.
func AuthInterceptor(verifier TokenVerifier, logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	reject := func(ctx context.Context, method string, err error) error {
		logger.Warn("caller token rejected",
			zap.String("method", method),
			zap.String("request_id", grpcmeta.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
		return unauthenticated(ctx, err)
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+ledgerv1.ServiceName+"/") {
			return handler(ctx, req)
		}
		header := grpcmeta.IncomingValue(ctx, AuthorizationHeader)
		if header == "" {
			return handler(ctx, req)
		}
		token, ok := bearerToken(header)
		if !ok {
			return nil, reject(ctx, info.FullMethod, apperrors.New(apperrors.CodeUnauthenticated, "authorization header must be a bearer token"))
		}
		if verifier == nil {
			return nil, reject(ctx, info.FullMethod, apperrors.New(apperrors.CodeUnauthenticated, "caller tokens are not accepted by this server"))
		}
		caller, err := verifier(token)
		if err != nil {
			return nil, reject(ctx, info.FullMethod, err)
		}
		return handler(requestctx.WithCaller(ctx, caller.String()), req)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthenticated(ctx context.Context, err error) error {
	if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
		return status.Error(codes.Unauthenticated, "caller token could not be verified")
	}
	return apperrors.HandleError(err, requestctx.LocaleFromContext(ctx))
}
