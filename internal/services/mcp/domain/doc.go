// Package domain maps MCP tools and resources onto ledger gRPC calls.
//
// Every handler performs exactly one ledger call with a fresh request ID and
// an invocation ID that ties the call back to the tool invocation. Response
// correlation IDs are returned in the tool result metadata.
package domain
