// Package ledgerv1 defines the ledger.v1.LedgerService wire contract: request
// and response messages, the gRPC service descriptor and a typed client.
//
// Messages travel as JSON under the "json" gRPC content subtype. Clients
// built with NewLedgerServiceClient select it on every call.
package ledgerv1
