package ledger

import (
	"context"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/platform/requestctx"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// callerFromContext returns the verified caller of a mutating call.
func callerFromContext(ctx context.Context) (identity.Identity, error) {
	subject := requestctx.CallerFromContext(ctx)
	if subject == "" {
		return identity.Identity{}, apperrors.New(apperrors.CodeUnauthenticated, "caller identity is required")
	}
	caller, err := identity.New(subject)
	if err != nil {
		return identity.Identity{}, apperrors.Wrap(apperrors.CodeUnauthenticated, "caller identity is invalid", err)
	}
	return caller, nil
}

// parseIdentity maps an empty value to the zero identity so the ledger core
// reports the missing field itself.
func parseIdentity(field, value string) (identity.Identity, error) {
	if value == "" {
		return identity.Identity{}, nil
	}
	parsed, err := identity.New(value)
	if err != nil {
		return identity.Identity{}, &apperrors.Error{
			Code:     apperrors.CodeInvalidInput,
			Message:  field + ": " + err.Error(),
			Metadata: map[string]string{"Field": field},
			Cause:    err,
		}
	}
	return parsed, nil
}

func productToProto(p product.Product) *ledgerv1.Product {
	return &ledgerv1.Product{
		ID:           p.ID,
		Name:         p.Name,
		Manufacturer: p.Manufacturer.String(),
		Origin:       p.Origin,
		CreatedAt:    p.CreatedAt,
		Status:       p.Status.String(),
		StatusKind:   string(p.Status.Kind),
		Holder:       p.Holder.String(),
		Batch:        p.Batch,
	}
}

func eventToProto(evt event.Event) *ledgerv1.Event {
	return &ledgerv1.Event{
		ProductID:      evt.ProductID,
		Index:          evt.Index,
		Type:           evt.Type.String(),
		Kind:           string(evt.Type.Kind),
		Location:       evt.Location,
		Timestamp:      evt.Timestamp,
		Handler:        evt.Handler.String(),
		Notes:          evt.Notes,
		Hash:           evt.Hash,
		PrevHash:       evt.PrevHash,
		ChainHash:      evt.ChainHash,
		SignatureKeyID: evt.SignatureKeyID,
		Signature:      evt.Signature,
	}
}
