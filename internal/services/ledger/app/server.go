package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	"github.com/louisbranch/waybill/internal/platform/logging"
	"github.com/louisbranch/waybill/internal/platform/timeouts"
	"github.com/louisbranch/waybill/internal/services/ledger/api/grpc/interceptors"
	ledgergrpc "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/ledger"
	grpcmeta "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/waybill/internal/services/ledger/host"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/memory"
	storagesqlite "github.com/louisbranch/waybill/internal/services/ledger/storage/sqlite"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config describes one ledger server.
type Config struct {
	// Addr is the listen address, for example ":8090" or "127.0.0.1:0".
	Addr string
	// StoreKind selects StoreSQLite (default) or StoreMemory.
	StoreKind string
	// DBPath is the sqlite database file.
	DBPath string
	// Keyring seals and verifies event chains.
	Keyring *integrity.Keyring
	// Verifier resolves bearer tokens. Without one every call is anonymous
	// and mutations fail with UNAUTHENTICATED.
	Verifier interceptors.TokenVerifier
	Logger   *zap.Logger
	Tracer   trace.Tracer
}

// Server hosts the ledger gRPC server.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	host       *host.Host
	store      storage.Store
	logger     *zap.Logger
}

// New opens the configured store and prepares a server listening on cfg.Addr.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	hostOpts := []host.Option{host.WithLogger(logger)}
	if cfg.Tracer != nil {
		hostOpts = append(hostOpts, host.WithTracer(cfg.Tracer))
	}
	ledgerHost, err := host.New(store, hostOpts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	service, err := ledgergrpc.NewService(ledgerHost)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			interceptors.AuthInterceptor(cfg.Verifier, logger),
			interceptors.AuditInterceptor(logger),
		),
	)
	healthServer := health.NewServer()
	ledgerv1.RegisterLedgerServiceServer(grpcServer, service)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ledgerv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		host:       ledgerHost,
		store:      store,
		logger:     logger,
	}, nil
}

// Addr returns the listener address for the ledger server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Host returns the ledger host behind the server.
func (s *Server) Host() *host.Host {
	return s.host
}

// Run creates and serves a ledger server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the ledger server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close ledger store", zap.Error(err))
		}
	}()

	s.logger.Info("ledger server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.stop()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

// stop drains in-flight calls, forcing the stop after timeouts.Shutdown.
func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeouts.Shutdown):
		s.logger.Warn("graceful stop timed out; forcing")
		s.grpcServer.Stop()
		<-done
	}
}

func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	if cfg.Keyring == nil {
		return nil, errors.New("event keyring is required")
	}
	switch cfg.StoreKind {
	case StoreMemory:
		return memory.NewStore(cfg.Keyring)
	case "", StoreSQLite:
		path := cfg.DBPath
		if path == "" {
			path = filepath.Join("data", "ledger.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := storagesqlite.Open(ctx, path, cfg.Keyring)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}
}
