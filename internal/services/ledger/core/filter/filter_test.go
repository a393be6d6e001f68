package filter

import (
	"reflect"
	"testing"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

func sampleEvent() event.Event {
	return event.Event{
		ProductID: "PROD-001",
		Index:     2,
		Type:      event.TypeOf(event.KindInspection),
		Location:  "Warehouse-1",
		Timestamp: 7,
		Handler:   identity.MustNew("X"),
		Notes:     "ok",
	}
}

func TestParseEventFilter_TypeEquals(t *testing.T) {
	f, err := ParseEventFilter(`type = "inspection"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond := f.SQL()
	if cond.Clause != "event_type = ?" {
		t.Fatalf("Clause = %q, want %q", cond.Clause, "event_type = ?")
	}
	if !reflect.DeepEqual(cond.Params, []any{"inspection"}) {
		t.Fatalf("Params = %v", cond.Params)
	}
	if !f.Match(sampleEvent()) {
		t.Fatal("expected inspection event to match")
	}
}

func TestParseEventFilter_Empty(t *testing.T) {
	f, err := ParseEventFilter(" ")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if !f.IsEmpty() {
		t.Fatal("expected empty filter")
	}
	cond := f.SQL()
	if cond.Clause != "" || cond.Params != nil {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
	if !f.Match(sampleEvent()) {
		t.Fatal("empty filter must match")
	}
}

func TestParseEventFilter_AndOr(t *testing.T) {
	f, err := ParseEventFilter(`type = "inspection" AND handler = "X"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond := f.SQL()
	if cond.Clause != "(event_type = ? AND handler = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"inspection", "X"}) {
		t.Fatalf("Params = %v", cond.Params)
	}
	if !f.Match(sampleEvent()) {
		t.Fatal("expected match")
	}

	f, err = ParseEventFilter(`location = "Dock-9" OR location = "Warehouse-1"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if f.SQL().Clause != "(location = ? OR location = ?)" {
		t.Fatalf("Clause = %q", f.SQL().Clause)
	}
	if !f.Match(sampleEvent()) {
		t.Fatal("expected OR to match second branch")
	}
}

func TestParseEventFilter_Numeric(t *testing.T) {
	f, err := ParseEventFilter(`index >= 1 AND timestamp < 10`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond := f.SQL()
	if cond.Clause != "(event_index >= ? AND ledger_timestamp < ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{int64(1), int64(10)}) {
		t.Fatalf("Params = %v", cond.Params)
	}
	if !f.Match(sampleEvent()) {
		t.Fatal("expected match")
	}

	f, err = ParseEventFilter(`index > 2`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if f.Match(sampleEvent()) {
		t.Fatal("index 2 must not match index > 2")
	}
}

func TestParseEventFilter_KindAndNotEquals(t *testing.T) {
	custom := sampleEvent()
	custom.Type = event.Type{Kind: event.KindCustom, Label: "cold-check"}

	f, err := ParseEventFilter(`kind = "custom"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if !f.Match(custom) || f.Match(sampleEvent()) {
		t.Fatal("kind filter mismatch")
	}

	f, err = ParseEventFilter(`handler != "X"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if f.SQL().Clause != "handler != ?" {
		t.Fatalf("Clause = %q", f.SQL().Clause)
	}
	if f.Match(sampleEvent()) {
		t.Fatal("expected handler X to be excluded")
	}
}

func TestParseEventFilter_InvalidField(t *testing.T) {
	_, err := ParseEventFilter(`notes = "ok"`)
	if !apperrors.HasCode(err, apperrors.CodeInvalidFilter) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
}

func TestParseEventFilter_Malformed(t *testing.T) {
	_, err := ParseEventFilter(`type = `)
	if !apperrors.HasCode(err, apperrors.CodeInvalidFilter) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
}
