// Package cursor provides opaque pagination token encoding/decoding.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
)

// Cursor represents the internal state of a pagination token.
type Cursor struct {
	// Seq is the last sequence number returned; the next page starts after it.
	Seq uint64 `json:"seq,omitempty"`
	// Key is the last string key returned, for listings ordered by key.
	Key string `json:"key,omitempty"`
	// Scope binds the token to the listing it came from (e.g. a product id).
	Scope string `json:"scope,omitempty"`
	// FilterHash ensures tokens are invalidated if the filter changes.
	FilterHash string `json:"filter_hash,omitempty"`
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque token. Failures carry INVALID_PAGE_TOKEN.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, invalid(fmt.Errorf("empty token"))
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, invalid(fmt.Errorf("decode base64: %w", err))
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, invalid(fmt.Errorf("unmarshal cursor: %w", err))
	}
	return c, nil
}

// HashFilter computes a short hash of the filter string for cursor validation.
// Returns empty string for empty filter.
func HashFilter(filter string) string {
	if filter == "" {
		return ""
	}
	h := sha256.Sum256([]byte(filter))
	return hex.EncodeToString(h[:8])
}

// Validate checks that the cursor was issued for scope and filter.
func Validate(c Cursor, scope, filter string) error {
	if c.Scope != scope {
		return invalid(fmt.Errorf("page token belongs to another listing"))
	}
	if c.FilterHash != HashFilter(filter) {
		return invalid(fmt.Errorf("filter changed since page token was created"))
	}
	return nil
}

// Next builds the token for the page after seq or key.
func Next(scope, filter string, seq uint64, key string) Cursor {
	return Cursor{Seq: seq, Key: key, Scope: scope, FilterHash: HashFilter(filter)}
}

func invalid(err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidPageToken, err.Error(), err)
}
