package ledger

import (
	"context"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// State is the transactional view of ledger storage an operation runs against.
type State interface {
	// Product returns the product and whether it exists.
	Product(ctx context.Context, id string) (product.Product, bool, error)
	// CreateProduct inserts a new product, initializes its event counter to
	// zero and increments the global total.
	CreateProduct(ctx context.Context, p product.Product) error
	// UpdateProduct overwrites the mutable fields of an existing product.
	UpdateProduct(ctx context.Context, p product.Product) error
	TotalProducts(ctx context.Context) (uint64, error)

	// EventCount returns the per-product counter and whether the product exists.
	EventCount(ctx context.Context, productID string) (uint64, bool, error)
	// AppendEvent writes evt at evt.Index, which must equal the current event
	// count, and increments the counter. The stored event is returned with
	// its integrity fields populated.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	Event(ctx context.Context, productID string, index uint64) (event.Event, bool, error)

	IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error)
	PutGrant(ctx context.Context, productID string, handler identity.Identity) error
	DeleteGrant(ctx context.Context, productID string, handler identity.Identity) error
}

// Call carries the host inputs of one operation.
type Call struct {
	Caller identity.Identity
	// Height is the ledger timestamp assigned to the call.
	Height uint64
}
