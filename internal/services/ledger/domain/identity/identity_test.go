package identity

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"plain", "manufacturer-m", true},
		{"max length", strings.Repeat("a", MaxLength), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", MaxLength+1), false},
		{"padded", " m ", false},
		{"control", "m\n", false},
		{"invalid utf8", string([]byte{0xff, 0xfe}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.value)
			if (err == nil) != tt.ok {
				t.Fatalf("New(%q) err = %v, want ok=%v", tt.value, err, tt.ok)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := MustNew("M")
	if !a.Equal(MustNew("M")) {
		t.Fatal("expected equal identities")
	}
	if a.Equal(MustNew("m")) {
		t.Fatal("identities are case sensitive")
	}
	if !(Identity{}).IsZero() {
		t.Fatal("expected zero identity")
	}
}

func TestJSONUsesPlainString(t *testing.T) {
	data, err := json.Marshal(struct {
		Holder Identity `json:"holder"`
	}{Holder: MustNew("H")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"holder":"H"}` {
		t.Fatalf("json = %s", data)
	}

	var decoded struct {
		Holder Identity `json:"holder"`
	}
	if err := json.Unmarshal([]byte(`{"holder":" bad"}`), &decoded); err == nil {
		t.Fatal("expected invalid identity to be rejected")
	}
}
