// Package service wires MCP transports to the ledger tool handlers.
//
// It knows how to run MCP over stdio or streamable HTTP and delegates every
// tool and resource to the domain package, which talks to the ledger over gRPC.
package service
