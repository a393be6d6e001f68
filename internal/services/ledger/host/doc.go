// Package host is the serializing layer in front of the ledger core.
//
// The host supplies what the core treats as trusted input: the caller
// identity, which it receives from the transport, and the ledger height, which
// it advances once per mutating call inside the same store transaction as the
// call itself. Mutations are totally ordered by a single writer lock; a call
// that fails leaves both the state and the height untouched.
package host
