package ledger

import (
	"context"
	"fmt"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// RegisterInput describes a new product.
type RegisterInput struct {
	ID     string
	Name   string
	Origin string
	Batch  string
}

// Register inserts a product owned and held by the caller. Registration is
// permissionless; only an anonymous caller is refused. No event is appended.
func Register(ctx context.Context, state State, call Call, in RegisterInput) (string, error) {
	if call.Caller.IsZero() {
		return "", errUnauthorized(in.ID, ActionRegister)
	}
	if err := product.ValidateID(in.ID); err != nil {
		return "", err
	}
	if err := product.ValidateName(in.Name); err != nil {
		return "", err
	}
	if err := product.ValidateLocation("origin", in.Origin, true); err != nil {
		return "", err
	}
	if err := product.ValidateBatch(in.Batch); err != nil {
		return "", err
	}

	_, exists, err := state.Product(ctx, in.ID)
	if err != nil {
		return "", fmt.Errorf("load product: %w", err)
	}
	if exists {
		return "", errAlreadyExists(in.ID)
	}

	p := product.Product{
		ID:           in.ID,
		Name:         in.Name,
		Manufacturer: call.Caller,
		Origin:       in.Origin,
		CreatedAt:    call.Height,
		Status:       product.InitialStatus,
		Holder:       call.Caller,
		Batch:        in.Batch,
	}
	if err := state.CreateProduct(ctx, p); err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	return p.ID, nil
}

// UpdateStatus overwrites the status label and appends a status-change event.
// The manufacturer and the current holder may update the status. Any bounded
// label is accepted; there is no transition graph.
func UpdateStatus(ctx context.Context, state State, call Call, productID, label string) (product.Status, error) {
	p, err := resolve(ctx, state, productID)
	if err != nil {
		return product.Status{}, err
	}
	if !p.IsManufacturer(call.Caller) && !p.IsHolder(call.Caller) {
		return product.Status{}, errUnauthorized(productID, ActionUpdateStatus)
	}
	status, err := product.ParseStatus(label)
	if err != nil {
		return product.Status{}, err
	}

	previous := p.Status
	p.Status = status
	if err := state.UpdateProduct(ctx, p); err != nil {
		return product.Status{}, fmt.Errorf("update product: %w", err)
	}
	draft := event.Draft{
		ProductID: productID,
		Type:      event.TypeOf(event.KindStatusChange),
		Timestamp: call.Height,
		Handler:   call.Caller,
		Notes:     fmt.Sprintf("status %s -> %s", previous.Label, status.Label),
	}
	if _, err := appendEvent(ctx, state, draft); err != nil {
		return product.Status{}, err
	}
	return status, nil
}

// TransferCustody hands the product to newHolder, forces the status to
// in-transit and appends a custody-transfer event. The current holder and
// the manufacturer may transfer.
func TransferCustody(ctx context.Context, state State, call Call, productID string, newHolder identity.Identity, location string) (identity.Identity, error) {
	p, err := resolve(ctx, state, productID)
	if err != nil {
		return identity.Identity{}, err
	}
	if !p.IsHolder(call.Caller) && !p.IsManufacturer(call.Caller) {
		return identity.Identity{}, errUnauthorized(productID, ActionTransferCustody)
	}
	if newHolder.IsZero() {
		return identity.Identity{}, errInvalidIdentity("new_holder")
	}
	if err := product.ValidateLocation("location", location, false); err != nil {
		return identity.Identity{}, err
	}

	p.Holder = newHolder
	p.Status = product.TransitStatus
	if err := state.UpdateProduct(ctx, p); err != nil {
		return identity.Identity{}, fmt.Errorf("update product: %w", err)
	}
	draft := event.Draft{
		ProductID: productID,
		Type:      event.TypeOf(event.KindCustodyTransfer),
		Location:  location,
		Timestamp: call.Height,
		Handler:   call.Caller,
		Notes:     "custody -> " + newHolder.String(),
	}
	if _, err := appendEvent(ctx, state, draft); err != nil {
		return identity.Identity{}, err
	}
	return newHolder, nil
}

// GetProduct looks a product up. Unknown or malformed ids report false.
func GetProduct(ctx context.Context, state State, productID string) (product.Product, bool, error) {
	if product.ValidateID(productID) != nil {
		return product.Product{}, false, nil
	}
	p, ok, err := state.Product(ctx, productID)
	if err != nil {
		return product.Product{}, false, fmt.Errorf("load product: %w", err)
	}
	return p, ok, nil
}

// TotalProducts returns the number of products ever registered.
func TotalProducts(ctx context.Context, state State) (uint64, error) {
	total, err := state.TotalProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load total products: %w", err)
	}
	return total, nil
}

func resolve(ctx context.Context, state State, productID string) (product.Product, error) {
	if err := product.ValidateID(productID); err != nil {
		return product.Product{}, err
	}
	p, ok, err := state.Product(ctx, productID)
	if err != nil {
		return product.Product{}, fmt.Errorf("load product: %w", err)
	}
	if !ok {
		return product.Product{}, errNotFound(productID)
	}
	return p, nil
}
