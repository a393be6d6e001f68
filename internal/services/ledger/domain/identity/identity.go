// Package identity defines the opaque caller principal supplied by the host.
package identity

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxLength bounds the encoded size of an identity in bytes.
const MaxLength = 128

// Identity is an authenticated principal. Two identities are the same
// principal exactly when Equal reports true; no ordering or structure is implied.
type Identity struct {
	value string
}

// New validates value and wraps it as an Identity.
func New(value string) (Identity, error) {
	if value == "" {
		return Identity{}, fmt.Errorf("identity is required")
	}
	if len(value) > MaxLength {
		return Identity{}, fmt.Errorf("identity exceeds %d bytes", MaxLength)
	}
	if !utf8.ValidString(value) || strings.TrimSpace(value) != value {
		return Identity{}, fmt.Errorf("identity must be valid UTF-8 without surrounding whitespace")
	}
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return Identity{}, fmt.Errorf("identity contains control characters")
		}
	}
	return Identity{value: value}, nil
}

// MustNew is New for literals in tests and fixtures.
func MustNew(value string) Identity {
	id, err := New(value)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the principal as supplied.
func (i Identity) String() string {
	return i.value
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.value == ""
}

// Equal reports whether i and other name the same principal.
func (i Identity) Equal(other Identity) bool {
	return i.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Identity) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*i = Identity{}
		return nil
	}
	parsed, err := New(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
