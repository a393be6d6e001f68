package encoding

import (
	"math"
	"testing"
)

func TestCanonicalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "sorted keys",
			input: map[string]any{"z": 1, "a": 2, "m": 3},
			want:  `{"a":2,"m":3,"z":1}`,
		},
		{
			name:  "nested objects",
			input: map[string]any{"b": map[string]any{"d": 1, "c": 2}, "a": 3},
			want:  `{"a":3,"b":{"c":2,"d":1}}`,
		},
		{
			name:  "array order preserved",
			input: []any{3, 1, 2},
			want:  `[3,1,2]`,
		},
		{
			name:  "html not escaped",
			input: map[string]any{"notes": "<fragile> & cold"},
			want:  `{"notes":"<fragile> & cold"}`,
		},
		{
			name:  "large height keeps precision",
			input: map[string]any{"height": uint64(math.MaxUint64)},
			want:  `{"height":18446744073709551615}`,
		},
		{
			name: "struct tags",
			input: struct {
				ProductID string `json:"product_id"`
				Index     uint64 `json:"index"`
			}{ProductID: "PROD-001", Index: 2},
			want: `{"index":2,"product_id":"PROD-001"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalJSON(tt.input)
			if err != nil {
				t.Fatalf("CanonicalJSON: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("CanonicalJSON = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonicalJSONRejectsUnsupported(t *testing.T) {
	if _, err := CanonicalJSON(map[string]any{"ch": make(chan int)}); err == nil {
		t.Fatal("expected error for channel value")
	}
}

func TestHashIsOrderIndependent(t *testing.T) {
	a, err := Hash(map[string]any{"x": 1, "y": "two"})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := Hash(map[string]any{"y": "two", "x": 1})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a != b {
		t.Fatalf("hash mismatch: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}

	short, err := ContentHash(map[string]any{"x": 1, "y": "two"})
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if short != a[:32] {
		t.Fatalf("ContentHash = %s, want prefix %s", short, a[:32])
	}
}
