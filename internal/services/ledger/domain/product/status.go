package product

import "strings"

// StatusKind classifies well-known status labels. Labels outside the known set
// keep StatusCustom and are stored verbatim.
type StatusKind string

const (
	StatusRegistered StatusKind = "registered"
	StatusInTransit  StatusKind = "in-transit"
	StatusReceived   StatusKind = "received"
	StatusStored     StatusKind = "stored"
	StatusDelivered  StatusKind = "delivered"
	StatusRecalled   StatusKind = "recalled"
	StatusCustom     StatusKind = "custom"
)

var knownStatuses = map[string]StatusKind{
	string(StatusRegistered): StatusRegistered,
	string(StatusInTransit):  StatusInTransit,
	string(StatusReceived):   StatusReceived,
	string(StatusStored):     StatusStored,
	string(StatusDelivered):  StatusDelivered,
	string(StatusRecalled):   StatusRecalled,
}

// Status is a free-form label with its classification.
type Status struct {
	Kind  StatusKind
	Label string
}

// InitialStatus is assigned at registration.
var InitialStatus = Status{Kind: StatusRegistered, Label: string(StatusRegistered)}

// TransitStatus is forced by a custody transfer.
var TransitStatus = Status{Kind: StatusInTransit, Label: string(StatusInTransit)}

// ParseStatus validates label and classifies it. No transition rules apply:
// any bounded label is accepted.
func ParseStatus(label string) (Status, error) {
	if err := ValidateStatusLabel(label); err != nil {
		return Status{}, err
	}
	return classify(label), nil
}

func classify(label string) Status {
	if kind, ok := knownStatuses[label]; ok {
		return Status{Kind: kind, Label: label}
	}
	return Status{Kind: StatusCustom, Label: label}
}

// String returns the label.
func (s Status) String() string {
	return s.Label
}

// IsKnown reports whether the label is one of the predefined kinds.
func (s Status) IsKnown() bool {
	return s.Kind != StatusCustom && s.Kind != ""
}

// MarshalText encodes the status as its label.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Label), nil
}

// UnmarshalText restores a status from its label.
func (s *Status) UnmarshalText(text []byte) error {
	*s = classify(strings.Clone(string(text)))
	return nil
}
