package ledger

import (
	"context"
	"fmt"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// RecordEventInput describes an externally recorded event.
type RecordEventInput struct {
	ProductID string
	Type      string
	Location  string
	Notes     string
}

// RecordEvent appends a caller supplied event and returns its index. The
// manufacturer, the current holder and granted handlers may record events.
func RecordEvent(ctx context.Context, state State, call Call, in RecordEventInput) (uint64, error) {
	p, err := resolve(ctx, state, in.ProductID)
	if err != nil {
		return 0, err
	}
	allowed, err := mayRecord(ctx, state, p, call)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, errUnauthorized(in.ProductID, ActionRecordEvent)
	}

	typ, err := event.ParseType(in.Type)
	if err != nil {
		return 0, err
	}
	if err := product.ValidateLocation("location", in.Location, true); err != nil {
		return 0, err
	}
	if err := event.ValidateNotes(in.Notes); err != nil {
		return 0, err
	}

	stored, err := appendEvent(ctx, state, event.Draft{
		ProductID: in.ProductID,
		Type:      typ,
		Location:  in.Location,
		Timestamp: call.Height,
		Handler:   call.Caller,
		Notes:     in.Notes,
	})
	if err != nil {
		return 0, err
	}
	return stored.Index, nil
}

func mayRecord(ctx context.Context, state State, p product.Product, call Call) (bool, error) {
	if call.Caller.IsZero() {
		return false, nil
	}
	if p.IsManufacturer(call.Caller) || p.IsHolder(call.Caller) {
		return true, nil
	}
	granted, err := state.IsAuthorized(ctx, p.ID, call.Caller)
	if err != nil {
		return false, fmt.Errorf("load grant: %w", err)
	}
	return granted, nil
}

// appendEvent writes draft at the product's current event count. It performs
// no authorization; callers have already authorized their own action.
func appendEvent(ctx context.Context, state State, draft event.Draft) (event.Event, error) {
	if err := draft.Validate(); err != nil {
		return event.Event{}, err
	}
	count, ok, err := state.EventCount(ctx, draft.ProductID)
	if err != nil {
		return event.Event{}, fmt.Errorf("load event count: %w", err)
	}
	if !ok {
		return event.Event{}, errNotFound(draft.ProductID)
	}
	stored, err := state.AppendEvent(ctx, draft.At(count))
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	return stored, nil
}

// GetEvent looks an event up. Unknown products and indexes report false.
func GetEvent(ctx context.Context, state State, productID string, index uint64) (event.Event, bool, error) {
	if product.ValidateID(productID) != nil {
		return event.Event{}, false, nil
	}
	evt, ok, err := state.Event(ctx, productID, index)
	if err != nil {
		return event.Event{}, false, fmt.Errorf("load event: %w", err)
	}
	return evt, ok, nil
}

// GetEventCount returns the product's event counter. Unknown products report
// false.
func GetEventCount(ctx context.Context, state State, productID string) (uint64, bool, error) {
	if product.ValidateID(productID) != nil {
		return 0, false, nil
	}
	count, ok, err := state.EventCount(ctx, productID)
	if err != nil {
		return 0, false, fmt.Errorf("load event count: %w", err)
	}
	return count, ok, nil
}
