package event

import (
	"strings"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
)

// Kind classifies well-known event type labels.
type Kind string

const (
	KindInspection      Kind = "inspection"
	KindShipment        Kind = "shipment"
	KindReceipt         Kind = "receipt"
	KindStorage         Kind = "storage"
	KindDelivery        Kind = "delivery"
	KindStatusChange    Kind = "status-change"
	KindCustodyTransfer Kind = "custody-transfer"
	KindCustom          Kind = "custom"
)

var knownKinds = map[string]Kind{
	string(KindInspection):      KindInspection,
	string(KindShipment):        KindShipment,
	string(KindReceipt):         KindReceipt,
	string(KindStorage):         KindStorage,
	string(KindDelivery):        KindDelivery,
	string(KindStatusChange):    KindStatusChange,
	string(KindCustodyTransfer): KindCustodyTransfer,
}

// MaxTypeLength bounds an event type label.
const MaxTypeLength = 32

// Type is a caller supplied event label with its classification.
type Type struct {
	Kind  Kind
	Label string
}

// ParseType validates and classifies an event type label.
func ParseType(label string) (Type, error) {
	if err := product.ValidateText("event_type", label, MaxTypeLength, true); err != nil {
		return Type{}, err
	}
	return classify(label), nil
}

// TypeOf returns the canonical type for a well-known kind.
func TypeOf(kind Kind) Type {
	return Type{Kind: kind, Label: string(kind)}
}

func classify(label string) Type {
	if kind, ok := knownKinds[label]; ok {
		return Type{Kind: kind, Label: label}
	}
	return Type{Kind: KindCustom, Label: label}
}

// String returns the label.
func (t Type) String() string {
	return t.Label
}

// MarshalText encodes the type as its label.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.Label), nil
}

// UnmarshalText restores a type from its label.
func (t *Type) UnmarshalText(text []byte) error {
	*t = classify(strings.Clone(string(text)))
	return nil
}
