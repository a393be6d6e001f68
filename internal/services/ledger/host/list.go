package host

import (
	"context"

	"github.com/louisbranch/waybill/internal/platform/grpc/pagination"
	"github.com/louisbranch/waybill/internal/platform/storage/cursor"
	"github.com/louisbranch/waybill/internal/services/ledger/core/filter"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
)

// Page size limits for listings.
var pageSizes = pagination.PageSizeConfig{Default: 50, Max: 200}

// ListEventsRequest selects a page of a product's events.
type ListEventsRequest struct {
	ProductID string
	// Filter is an AIP-160 expression over type, kind, location, handler,
	// index and timestamp.
	Filter    string
	PageSize  int32
	PageToken string
}

// EventPage is one page of events ordered by index.
type EventPage struct {
	Events        []event.Event
	NextPageToken string
}

// ListProductsRequest selects a page of products ordered by id.
type ListProductsRequest struct {
	Holder    identity.Identity
	PageSize  int32
	PageToken string
}

// ProductPage is one page of products.
type ProductPage struct {
	Products      []product.Product
	NextPageToken string
}

// ListEvents returns a filtered page of a product's history. Unknown products
// are NOT_FOUND.
func (h *Host) ListEvents(ctx context.Context, req ListEventsRequest) (EventPage, error) {
	f, err := filter.ParseEventFilter(req.Filter)
	if err != nil {
		return EventPage{}, err
	}
	query := storage.EventQuery{
		ProductID: req.ProductID,
		Filter:    f,
	}
	if req.PageToken != "" {
		c, err := cursor.Decode(req.PageToken)
		if err != nil {
			return EventPage{}, err
		}
		if err := cursor.Validate(c, req.ProductID, f.String()); err != nil {
			return EventPage{}, err
		}
		after := c.Seq
		query.After = &after
	}
	size := pagination.ClampPageSize(req.PageSize, pageSizes)
	query.Limit = size + 1

	var page EventPage
	err = h.view(ctx, "list_events", func(ctx context.Context, tx storage.Tx) error {
		if _, found, err := tx.EventCount(ctx, req.ProductID); err != nil {
			return err
		} else if !found {
			return notFound(req.ProductID)
		}
		events, err := tx.ListEvents(ctx, query)
		if err != nil {
			return err
		}
		if len(events) > size {
			events = events[:size]
			token, err := cursor.Encode(cursor.Next(req.ProductID, f.String(), events[size-1].Index, ""))
			if err != nil {
				return err
			}
			page.NextPageToken = token
		}
		page.Events = events
		return nil
	})
	return page, err
}

// ListProducts returns a page of products, optionally restricted to a holder.
func (h *Host) ListProducts(ctx context.Context, req ListProductsRequest) (ProductPage, error) {
	scope := "products:" + req.Holder.String()
	query := storage.ProductQuery{Holder: req.Holder}
	if req.PageToken != "" {
		c, err := cursor.Decode(req.PageToken)
		if err != nil {
			return ProductPage{}, err
		}
		if err := cursor.Validate(c, scope, ""); err != nil {
			return ProductPage{}, err
		}
		query.AfterID = c.Key
	}
	size := pagination.ClampPageSize(req.PageSize, pageSizes)
	query.Limit = size + 1

	var page ProductPage
	err := h.view(ctx, "list_products", func(ctx context.Context, tx storage.Tx) error {
		products, err := tx.ListProducts(ctx, query)
		if err != nil {
			return err
		}
		if len(products) > size {
			products = products[:size]
			token, err := cursor.Encode(cursor.Next(scope, "", 0, products[size-1].ID))
			if err != nil {
				return err
			}
			page.NextPageToken = token
		}
		page.Products = products
		return nil
	})
	return page, err
}
