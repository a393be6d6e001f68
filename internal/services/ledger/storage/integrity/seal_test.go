package integrity

import (
	"testing"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

func testRing(t *testing.T) *Keyring {
	t.Helper()
	ring, err := NewKeyring(map[string][]byte{"v1": []byte("secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return ring
}

func sealedChain(t *testing.T, ring *Keyring, n int) []event.Event {
	t.Helper()
	var (
		events []event.Event
		prev   string
	)
	for i := range n {
		evt := event.Event{
			ProductID: "PROD-001",
			Index:     uint64(i),
			Type:      event.TypeOf(event.KindInspection),
			Location:  "Warehouse-1",
			Timestamp: uint64(10 + i),
			Handler:   identity.MustNew("X"),
			Notes:     "ok",
		}
		sealed, err := Seal(ring, evt, prev)
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		events = append(events, sealed)
		prev = sealed.ChainHash
	}
	return events
}

func TestSealAndVerifyChain(t *testing.T) {
	ring := testRing(t)
	events := sealedChain(t, ring, 3)

	if events[0].PrevHash != "" {
		t.Fatalf("first prev hash = %q, want empty", events[0].PrevHash)
	}
	if events[1].PrevHash != events[0].ChainHash {
		t.Fatal("second event must chain to the first")
	}

	verifier := NewChainVerifier(ring, "PROD-001")
	for _, evt := range events {
		if err := verifier.Check(evt); err != nil {
			t.Fatalf("check %d: %v", evt.Index, err)
		}
	}
	if err := verifier.Finish(3); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if verifier.Verified() != 3 {
		t.Fatalf("verified = %d, want 3", verifier.Verified())
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	ring := testRing(t)

	tests := []struct {
		name   string
		mutate func([]event.Event) []event.Event
	}{
		{"edited notes", func(e []event.Event) []event.Event { e[1].Notes = "forged"; return e }},
		{"gap", func(e []event.Event) []event.Event { return append(e[:1], e[2:]...) }},
		{"bad signature", func(e []event.Event) []event.Event { e[2].Signature = "00"; return e }},
		{"relinked", func(e []event.Event) []event.Event { e[2].PrevHash = e[0].ChainHash; return e }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := tt.mutate(sealedChain(t, ring, 3))
			verifier := NewChainVerifier(ring, "PROD-001")
			var err error
			for _, evt := range events {
				if err = verifier.Check(evt); err != nil {
					break
				}
			}
			if !apperrors.HasCode(err, apperrors.CodeIntegrityViolation) {
				t.Fatalf("err = %v, want INTEGRITY_VIOLATION", err)
			}
		})
	}
}

func TestFinishDetectsTruncation(t *testing.T) {
	ring := testRing(t)
	verifier := NewChainVerifier(ring, "PROD-001")
	for _, evt := range sealedChain(t, ring, 2) {
		if err := verifier.Check(evt); err != nil {
			t.Fatalf("check: %v", err)
		}
	}
	if err := verifier.Finish(3); !apperrors.HasCode(err, apperrors.CodeIntegrityViolation) {
		t.Fatalf("err = %v, want INTEGRITY_VIOLATION", err)
	}
}
