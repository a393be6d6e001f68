package ledger

import (
	"context"
	"fmt"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// AuthorizeHandler grants handler the right to record events. Only the
// manufacturer may grant. Granting twice is a no-op.
func AuthorizeHandler(ctx context.Context, state State, call Call, productID string, handler identity.Identity) (bool, error) {
	if err := manageHandlers(ctx, state, call, productID, handler); err != nil {
		return false, err
	}
	if err := state.PutGrant(ctx, productID, handler); err != nil {
		return false, fmt.Errorf("put grant: %w", err)
	}
	return true, nil
}

// RevokeHandler removes a grant. Only the manufacturer may revoke. Revoking an
// absent grant succeeds.
func RevokeHandler(ctx context.Context, state State, call Call, productID string, handler identity.Identity) (bool, error) {
	if err := manageHandlers(ctx, state, call, productID, handler); err != nil {
		return false, err
	}
	if err := state.DeleteGrant(ctx, productID, handler); err != nil {
		return false, fmt.Errorf("delete grant: %w", err)
	}
	return true, nil
}

func manageHandlers(ctx context.Context, state State, call Call, productID string, handler identity.Identity) error {
	p, err := resolve(ctx, state, productID)
	if err != nil {
		return err
	}
	if !p.IsManufacturer(call.Caller) {
		return errUnauthorized(productID, ActionManageHandlers)
	}
	if handler.IsZero() {
		return errInvalidIdentity("handler")
	}
	return nil
}

// IsAuthorized reports whether handler holds a grant. Absence, including an
// unknown product, is false.
func IsAuthorized(ctx context.Context, state State, productID string, handler identity.Identity) (bool, error) {
	if product.ValidateID(productID) != nil || handler.IsZero() {
		return false, nil
	}
	granted, err := state.IsAuthorized(ctx, productID, handler)
	if err != nil {
		return false, fmt.Errorf("load grant: %w", err)
	}
	return granted, nil
}
