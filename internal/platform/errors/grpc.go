package errors

import (
	stderrors "errors"

	"github.com/louisbranch/waybill/internal/platform/errors/i18n"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = i18n.BaseLocale

// HandleError converts domain errors to gRPC status for client responses.
// The user-facing message is rendered from the i18n catalog for locale.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	appErr, ok := asDomain(err)
	if !ok {
		if _, isStatus := status.FromError(err); isStatus {
			return err
		}
		return status.Error(codes.Internal, "an unexpected error occurred")
	}
	if appErr.Code == CodeUnknown {
		return status.Error(codes.Internal, "an unexpected error occurred")
	}
	if locale == "" {
		locale = DefaultLocale
	}
	catalog := i18n.GetCatalog(locale)
	userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
	return appErr.ToGRPCStatus(catalog.Locale(), userMsg)
}

// GetMetadata returns the metadata of the first domain error in err's chain.
func GetMetadata(err error) map[string]string {
	if appErr, ok := asDomain(err); ok {
		return appErr.Metadata
	}
	return nil
}

func asDomain(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
