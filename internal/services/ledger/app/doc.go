// Package server wires storage, the ledger host and the gRPC surface into a
// runnable ledger server.
package server
