// Package storage defines the persistence contract for the custody ledger.
//
// A Store runs functions inside transactions. Update commits when fn returns
// nil and discards every write otherwise; View never writes.
package storage

import (
	"context"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/core/filter"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrReadOnly is returned by writes attempted inside View.
var ErrReadOnly = apperrors.New(apperrors.CodeUnknown, "transaction is read-only")

// Tx is the transactional view handed to Update and View callbacks.
type Tx interface {
	ledger.State

	// ListProducts returns products ordered by id.
	ListProducts(ctx context.Context, query ProductQuery) ([]product.Product, error)
	// ListEvents returns a product's events ordered by index.
	ListEvents(ctx context.Context, query EventQuery) ([]event.Event, error)
	// ListGrants returns a product's authorized handlers ordered by handler.
	ListGrants(ctx context.Context, productID string) ([]identity.Identity, error)

	// LedgerHeight returns the height of the last committed mutating call.
	LedgerHeight(ctx context.Context) (uint64, error)
	// AdvanceLedgerHeight increments the height and returns the new value.
	AdvanceLedgerHeight(ctx context.Context) (uint64, error)
}

// ProductQuery selects a page of products.
type ProductQuery struct {
	// AfterID skips products with ids <= AfterID.
	AfterID string
	// Holder restricts the listing when set.
	Holder identity.Identity
	Limit  int
}

// EventQuery selects a page of a product's events.
type EventQuery struct {
	ProductID string
	Filter    filter.Filter
	// After skips events with index <= *After.
	After *uint64
	Limit int
}

// Store is a transactional ledger store.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	// VerifyIntegrity checks the hash chain and signatures of one product's
	// events, or of every product when productID is empty.
	VerifyIntegrity(ctx context.Context, productID string) (IntegrityReport, error)
	Close() error
}

// IntegrityReport summarizes a successful verification.
type IntegrityReport struct {
	Products uint64
	Events   uint64
}
