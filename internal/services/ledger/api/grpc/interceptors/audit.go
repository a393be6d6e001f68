package interceptors

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	"github.com/louisbranch/waybill/internal/platform/requestctx"
	grpcmeta "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/metadata"
)

type productIDGetter interface {
	GetProductID() string
}

// AuditInterceptor logs one structured line per unary call.
func AuditInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}
		caller := requestctx.CallerFromContext(ctx)
		if caller == "" {
			caller = "anonymous"
		}
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("method_kind", classifyMethodKind(info.FullMethod)),
			zap.String("caller", caller),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if requestID := grpcmeta.RequestIDFromContext(ctx); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if invocationID := grpcmeta.InvocationIDFromContext(ctx); invocationID != "" {
			fields = append(fields, zap.String("invocation_id", invocationID))
		}
		if getter, ok := req.(productIDGetter); ok && getter.GetProductID() != "" {
			fields = append(fields, zap.String("product_id", getter.GetProductID()))
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}

		switch {
		case !strings.HasPrefix(info.FullMethod, "/"+ledgerv1.ServiceName+"/"):
			logger.Debug("grpc call", fields...)
		case code == codes.OK:
			logger.Info("grpc call", fields...)
		case code == codes.Internal, code == codes.Unknown, code == codes.DataLoss:
			logger.Error("grpc call", fields...)
		default:
			logger.Warn("grpc call", fields...)
		}
		return resp, err
	}
}

func classifyMethodKind(fullMethod string) string {
	switch fullMethod {
	case ledgerv1.LedgerService_GetProduct_FullMethodName,
		ledgerv1.LedgerService_GetEvent_FullMethodName,
		ledgerv1.LedgerService_GetEventCount_FullMethodName,
		ledgerv1.LedgerService_IsAuthorized_FullMethodName,
		ledgerv1.LedgerService_GetTotalProducts_FullMethodName,
		ledgerv1.LedgerService_ListEvents_FullMethodName,
		ledgerv1.LedgerService_ListProducts_FullMethodName,
		ledgerv1.LedgerService_VerifyIntegrity_FullMethodName:
		return "read"
	default:
		return "write"
	}
}
