package product

import (
	"strings"
	"testing"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

func TestParseStatusClassifiesLabels(t *testing.T) {
	tests := []struct {
		label string
		kind  StatusKind
	}{
		{"registered", StatusRegistered},
		{"in-transit", StatusInTransit},
		{"delivered", StatusDelivered},
		{"quality-hold", StatusCustom},
		{"Registered", StatusCustom},
	}
	for _, tt := range tests {
		status, err := ParseStatus(tt.label)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", tt.label, err)
		}
		if status.Kind != tt.kind {
			t.Fatalf("ParseStatus(%q).Kind = %s, want %s", tt.label, status.Kind, tt.kind)
		}
		if status.String() != tt.label {
			t.Fatalf("label = %q, want %q", status.String(), tt.label)
		}
	}
}

func TestParseStatusRejectsOutOfBounds(t *testing.T) {
	for _, label := range []string{"", strings.Repeat("x", MaxStatusLength+1), "bad\x00label"} {
		_, err := ParseStatus(label)
		if !apperrors.HasCode(err, apperrors.CodeInvalidStatus) {
			t.Fatalf("ParseStatus(%q) err = %v, want INVALID_STATUS", label, err)
		}
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("PROD-001"); err != nil {
		t.Fatalf("valid id: %v", err)
	}
	for _, id := range []string{"", strings.Repeat("p", MaxIDLength+1), "PROD 001", "PROD\t1"} {
		err := ValidateID(id)
		if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("ValidateID(%q) err = %v, want INVALID_INPUT", id, err)
		}
	}
}

func TestValidateTextBounds(t *testing.T) {
	if err := ValidateName(strings.Repeat("n", MaxNameLength)); err != nil {
		t.Fatalf("name at bound: %v", err)
	}
	if err := ValidateName(strings.Repeat("n", MaxNameLength+1)); err == nil {
		t.Fatal("expected name over bound to fail")
	}
	if err := ValidateName(""); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if err := ValidateBatch(""); err != nil {
		t.Fatalf("empty batch is optional: %v", err)
	}
	if err := ValidateLocation("location", "", false); err != nil {
		t.Fatalf("optional location: %v", err)
	}
	err := ValidateLocation("origin", "Factory\nA", true)
	var domainErr *apperrors.Error
	if !asDomain(err, &domainErr) || domainErr.Metadata["Field"] != "origin" {
		t.Fatalf("err = %v, want origin field error", err)
	}
	if err := ValidateMultiline("notes", "line one\nline two", 256); err != nil {
		t.Fatalf("multiline notes: %v", err)
	}
}

func TestRoles(t *testing.T) {
	m := identity.MustNew("M")
	h := identity.MustNew("H")
	p := Product{Manufacturer: m, Holder: h}
	if !p.IsManufacturer(m) || p.IsManufacturer(h) {
		t.Fatal("manufacturer check mismatch")
	}
	if !p.IsHolder(h) || p.IsHolder(m) {
		t.Fatal("holder check mismatch")
	}
}

func asDomain(err error, target **apperrors.Error) bool {
	de, ok := err.(*apperrors.Error)
	if ok {
		*target = de
	}
	return ok
}
