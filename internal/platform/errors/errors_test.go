package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeNotFound, codes.NotFound},
		{CodeUnauthorized, codes.PermissionDenied},
		{CodeAlreadyExists, codes.AlreadyExists},
		{CodeInvalidInput, codes.InvalidArgument},
		{CodeInvalidStatus, codes.InvalidArgument},
		{CodeInvalidFilter, codes.InvalidArgument},
		{CodeUnauthenticated, codes.Unauthenticated},
		{CodeIntegrityViolation, codes.DataLoss},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Fatalf("%s.GRPCCode() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "product not found"))
	if !stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeUnauthorized, "")) {
		t.Fatal("expected errors.Is to reject other code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("wrap: %w", New(CodeAlreadyExists, "x"))); got != CodeAlreadyExists {
		t.Fatalf("GetCode = %s, want %s", got, CodeAlreadyExists)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("GetCode = %s, want %s", got, CodeUnknown)
	}
	if HasCode(nil, CodeUnknown) {
		t.Fatal("expected nil error to have no code")
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeUnauthorized, "caller may not record events", map[string]string{"ProductID": "PROD-001"})
	grpcErr := err.ToGRPCStatus("en-US", "You are not allowed to do that.")

	st, ok := status.FromError(grpcErr)
	if !ok {
		t.Fatal("expected gRPC status")
	}
	if st.Code() != codes.PermissionDenied {
		t.Fatalf("code = %v, want %v", st.Code(), codes.PermissionDenied)
	}
	var sawInfo, sawLocalized bool
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			sawInfo = true
			if d.GetReason() != string(CodeUnauthorized) {
				t.Fatalf("reason = %q, want %q", d.GetReason(), CodeUnauthorized)
			}
			if d.GetMetadata()["ProductID"] != "PROD-001" {
				t.Fatalf("metadata = %v", d.GetMetadata())
			}
		case *errdetails.LocalizedMessage:
			sawLocalized = true
			if d.GetLocale() != "en-US" {
				t.Fatalf("locale = %q, want en-US", d.GetLocale())
			}
		}
	}
	if !sawInfo || !sawLocalized {
		t.Fatalf("missing details: info=%v localized=%v", sawInfo, sawLocalized)
	}
}

func TestFromGRPCStatusRoundTripsCode(t *testing.T) {
	original := New(CodeInvalidStatus, "status label too long")
	got := FromGRPCStatus(original.ToGRPCStatus("en-US", "bad status"))
	if got.Code != CodeInvalidStatus {
		t.Fatalf("code = %s, want %s", got.Code, CodeInvalidStatus)
	}

	plain := FromGRPCStatus(status.Error(codes.NotFound, "gone"))
	if plain.Code != CodeNotFound {
		t.Fatalf("fallback code = %s, want %s", plain.Code, CodeNotFound)
	}
	if FromGRPCStatus(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestHandleErrorLocalizesDomainErrors(t *testing.T) {
	err := WithMetadata(CodeNotFound, "product missing", map[string]string{"ProductID": "PROD-001"})
	st, ok := status.FromError(HandleError(fmt.Errorf("get product: %w", err), "pt-BR"))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("code = %v, want %v", st.Code(), codes.NotFound)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil {
		t.Fatal("expected localized message detail")
	}
	if localized.GetLocale() != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", localized.GetLocale())
	}
}

func TestHandleErrorHidesInfrastructureErrors(t *testing.T) {
	st, _ := status.FromError(HandleError(stderrors.New("disk on fire"), ""))
	if st.Code() != codes.Internal {
		t.Fatalf("code = %v, want %v", st.Code(), codes.Internal)
	}
	if st.Message() == "disk on fire" {
		t.Fatal("expected internal message to be hidden")
	}
}

func TestHandleErrorPassesThroughStatus(t *testing.T) {
	in := status.Error(codes.Unauthenticated, "token required")
	if got := HandleError(in, ""); got != in {
		t.Fatalf("HandleError = %v, want passthrough", got)
	}
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
}
