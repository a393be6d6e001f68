package ledger

import (
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
)

// Actions named in authorization failures.
const (
	ActionRegister        = "register"
	ActionUpdateStatus    = "update the status of"
	ActionTransferCustody = "transfer custody of"
	ActionRecordEvent     = "record events for"
	ActionManageHandlers  = "manage handlers of"
)

func errNotFound(productID string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, "product not found", map[string]string{
		"ProductID": productID,
	})
}

func errAlreadyExists(productID string) error {
	return apperrors.WithMetadata(apperrors.CodeAlreadyExists, "product already exists", map[string]string{
		"ProductID": productID,
	})
}

func errUnauthorized(productID, action string) error {
	return apperrors.WithMetadata(apperrors.CodeUnauthorized, "caller may not "+action+" product", map[string]string{
		"ProductID": productID,
		"Action":    action,
	})
}

func errInvalidIdentity(field string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, field+" identity is required", map[string]string{
		"Field": field,
	})
}
