package host

import (
	"context"
	"fmt"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/core/encoding"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
)

type productSnapshot struct {
	Product product.Product `json:"product"`
	Events  []event.Event   `json:"events"`
	Count   uint64          `json:"event_count"`
	Grants  []string        `json:"grants"`
}

type stateSnapshot struct {
	Height   uint64            `json:"height"`
	Total    uint64            `json:"total_products"`
	Products []productSnapshot `json:"products"`
}

// StateDigest hashes the complete ledger state, grants and integrity fields
// included. Two hosts that executed the same ordered calls report the same
// digest.
func (h *Host) StateDigest(ctx context.Context) (string, error) {
	var snapshot stateSnapshot
	err := h.view(ctx, "state_digest", func(ctx context.Context, tx storage.Tx) error {
		var err error
		if snapshot.Height, err = tx.LedgerHeight(ctx); err != nil {
			return err
		}
		if snapshot.Total, err = tx.TotalProducts(ctx); err != nil {
			return err
		}
		products, err := tx.ListProducts(ctx, storage.ProductQuery{})
		if err != nil {
			return err
		}
		for _, p := range products {
			events, err := tx.ListEvents(ctx, storage.EventQuery{ProductID: p.ID})
			if err != nil {
				return err
			}
			count, _, err := tx.EventCount(ctx, p.ID)
			if err != nil {
				return err
			}
			handlers, err := tx.ListGrants(ctx, p.ID)
			if err != nil {
				return err
			}
			grants := make([]string, 0, len(handlers))
			for _, handler := range handlers {
				grants = append(grants, handler.String())
			}
			snapshot.Products = append(snapshot.Products, productSnapshot{Product: p, Events: events, Count: count, Grants: grants})
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	digest, err := encoding.Hash(snapshot)
	if err != nil {
		return "", fmt.Errorf("hash state: %w", err)
	}
	return digest, nil
}
