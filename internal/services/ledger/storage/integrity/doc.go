// Package integrity seals appended events into a per-product hash chain and
// verifies stored chains.
//
// Each event carries the content hash of its recorded fields, the chain hash
// of its predecessor, its own chain hash and an HMAC signature over that chain
// hash. Signing keys are derived per product from a rotating root keyring.
package integrity
