// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Ledger errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidStatus Code = "INVALID_STATUS"

	// Transport errors
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeInvalidFilter    Code = "INVALID_FILTER"
	CodeInvalidPageToken Code = "INVALID_PAGE_TOKEN"

	// Journal errors
	CodeIntegrityViolation Code = "INTEGRITY_VIOLATION"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidInput,
		CodeInvalidStatus,
		CodeInvalidFilter,
		CodeInvalidPageToken:
		return codes.InvalidArgument

	case CodeNotFound:
		return codes.NotFound

	case CodeAlreadyExists:
		return codes.AlreadyExists

	// PermissionDenied - caller is known but lacks the relationship
	case CodeUnauthorized:
		return codes.PermissionDenied

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeIntegrityViolation:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}

// CodeFromGRPC maps a gRPC status code back to the closest domain code.
// Clients that lost the ErrorInfo detail use it as a fallback.
func CodeFromGRPC(code codes.Code) Code {
	switch code {
	case codes.InvalidArgument:
		return CodeInvalidInput
	case codes.NotFound:
		return CodeNotFound
	case codes.AlreadyExists:
		return CodeAlreadyExists
	case codes.PermissionDenied:
		return CodeUnauthorized
	case codes.Unauthenticated:
		return CodeUnauthenticated
	case codes.DataLoss:
		return CodeIntegrityViolation
	default:
		return CodeUnknown
	}
}
