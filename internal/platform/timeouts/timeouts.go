// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single ledger call issued by a client tool.
const GRPCRequest = 5 * time.Second

// HealthWait caps how long a client waits for the ledger to report SERVING.
const HealthWait = 10 * time.Second

// Shutdown limits how long the gRPC server waits for in-flight calls during
// graceful shutdown.
const Shutdown = 5 * time.Second
