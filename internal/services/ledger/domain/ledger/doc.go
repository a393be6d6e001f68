// Package ledger is the custody state machine: the product registry, the
// per-product event log, the authorization table and the counters that index
// them.
//
// Every operation receives the state it acts on and the host supplied Call.
// Operations never lock, retry or read a clock; the host totally orders calls
// and runs each one inside a single transaction, so a failed operation leaves
// the state untouched once the transaction is discarded. Mutations resolve the
// product, authorize the caller, validate the remaining input and only then
// write.
package ledger
