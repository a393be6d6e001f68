package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const ledgerService = "ledger.v1.LedgerService"

type healthFixture struct {
	addr   string
	health *health.Server
}

func TestWaitForHealth(t *testing.T) {
	tests := []struct {
		name    string
		initial grpc_health_v1.HealthCheckResponse_ServingStatus
		wait    string
		flipTo  grpc_health_v1.HealthCheckResponse_ServingStatus
		timeout time.Duration
		wantErr bool
	}{
		{name: "serving", initial: grpc_health_v1.HealthCheckResponse_SERVING, wait: ledgerService, timeout: 2 * time.Second},
		{name: "becomes serving", initial: grpc_health_v1.HealthCheckResponse_NOT_SERVING, wait: ledgerService, flipTo: grpc_health_v1.HealthCheckResponse_SERVING, timeout: 2 * time.Second},
		{name: "never serving", initial: grpc_health_v1.HealthCheckResponse_NOT_SERVING, wait: ledgerService, timeout: 300 * time.Millisecond, wantErr: true},
		{name: "unknown service", initial: grpc_health_v1.HealthCheckResponse_SERVING, wait: "ledger.v1.Missing", timeout: 300 * time.Millisecond, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := startHealthServer(t, tt.initial)
			conn := dialHealthServer(t, fx.addr)

			if tt.flipTo != grpc_health_v1.HealthCheckResponse_UNKNOWN {
				go func() {
					time.Sleep(150 * time.Millisecond)
					fx.health.SetServingStatus(ledgerService, tt.flipTo)
				}()
			}

			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()

			err := WaitForHealth(ctx, conn, tt.wait, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WaitForHealth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, ledgerService, nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) healthFixture {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, hs)
	hs.SetServingStatus(ledgerService, status)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		server.Stop()
		<-done
	})
	return healthFixture{addr: listener.Addr().String(), health: hs}
}

func dialHealthServer(t *testing.T, addr string) *gogrpc.ClientConn {
	t.Helper()

	conn, err := gogrpc.NewClient(addr, gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
