// Package event defines the immutable per-product history entries and the
// canonical envelopes used to hash and chain them.
package event
