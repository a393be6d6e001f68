package event

import (
	"fmt"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/core/encoding"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// MaxNotesLength bounds free-form notes.
const MaxNotesLength = 256

// Event is one immutable entry in a product's history.
type Event struct {
	ProductID string            `json:"product_id"`
	Index     uint64            `json:"index"`
	Type      Type              `json:"type"`
	Location  string            `json:"location"`
	Timestamp uint64            `json:"timestamp"`
	Handler   identity.Identity `json:"handler"`
	Notes     string            `json:"notes"`

	// Integrity fields are assigned by the store on append.
	Hash           string `json:"hash,omitempty"`
	PrevHash       string `json:"prev_hash,omitempty"`
	ChainHash      string `json:"chain_hash,omitempty"`
	SignatureKeyID string `json:"signature_key_id,omitempty"`
	Signature      string `json:"signature,omitempty"`
}

// Draft is an event before the store assigns its index.
type Draft struct {
	ProductID string
	Type      Type
	Location  string
	Timestamp uint64
	Handler   identity.Identity
	Notes     string
}

// Validate checks the caller supplied fields of a draft.
func (d Draft) Validate() error {
	if err := product.ValidateID(d.ProductID); err != nil {
		return err
	}
	if d.Type.Label == "" {
		return product.ValidateText("event_type", "", MaxTypeLength, true)
	}
	if err := product.ValidateLocation("location", d.Location, false); err != nil {
		return err
	}
	if err := ValidateNotes(d.Notes); err != nil {
		return err
	}
	if d.Handler.IsZero() {
		return fmt.Errorf("event handler is required")
	}
	return nil
}

// At fixes the draft at index.
func (d Draft) At(index uint64) Event {
	return Event{
		ProductID: d.ProductID,
		Index:     index,
		Type:      d.Type,
		Location:  d.Location,
		Timestamp: d.Timestamp,
		Handler:   d.Handler,
		Notes:     d.Notes,
	}
}

// ValidateNotes checks the notes bound. Notes may span lines.
func ValidateNotes(notes string) error {
	return product.ValidateMultiline("notes", notes, MaxNotesLength)
}

// EventHash computes the content hash of the event's recorded fields.
func EventHash(evt Event) (string, error) {
	envelope := map[string]any{
		"product_id": evt.ProductID,
		"index":      evt.Index,
		"type":       evt.Type.Label,
		"location":   evt.Location,
		"timestamp":  evt.Timestamp,
		"handler":    evt.Handler.String(),
		"notes":      evt.Notes,
	}
	hash, err := encoding.Hash(envelope)
	if err != nil {
		return "", fmt.Errorf("hash event: %w", err)
	}
	return hash, nil
}

// ChainHash links an event to its predecessor's chain hash. The first event of
// a product chains to the empty string.
func ChainHash(evt Event, prevChainHash string) (string, error) {
	envelope := map[string]any{
		"product_id": evt.ProductID,
		"index":      evt.Index,
		"hash":       evt.Hash,
		"prev_hash":  prevChainHash,
	}
	hash, err := encoding.Hash(envelope)
	if err != nil {
		return "", fmt.Errorf("hash chain: %w", err)
	}
	return hash, nil
}
