package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	"github.com/louisbranch/waybill/internal/platform/logging"
	platformgrpc "github.com/louisbranch/waybill/internal/platform/grpc"
	"github.com/louisbranch/waybill/internal/platform/timeouts"
)

const (
	serverName    = "waybill MCP"
	serverVersion = "0.1.0"

	defaultGRPCAddr = "localhost:8090"
	defaultHTTPAddr = "localhost:8081"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over the streamable HTTP transport.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	// GRPCAddr is the ledger gRPC address.
	GRPCAddr string
	// Token is the bearer token presented to the ledger. Tools that mutate
	// the ledger act as the token's subject; without one only reads succeed.
	Token     string
	Transport TransportKind
	HTTPAddr  string
	Logger    *zap.Logger
}

// Server hosts the MCP server and its ledger connection.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
	logger    *zap.Logger
}

// Run dials the ledger and serves MCP until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	server, err := dialServer(ctx, cfg)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	server, err := dialServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer server.Close()

	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server.mcpServer
	}, nil)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		server.logger.Info("mcp http listening", zap.String("addr", httpAddr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP http: %w", err)
		}
		return nil
	}
}

func dialServer(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)
	addr := strings.TrimSpace(cfg.GRPCAddr)
	if addr == "" {
		addr = defaultGRPCAddr
	}
	conn, err := platformgrpc.DialWithHealth(ctx, addr, ledgerv1.ServiceName, timeouts.HealthWait, logger, platformgrpc.ClientOptions(cfg.Token)...)
	if err != nil {
		return nil, fmt.Errorf("connect to ledger at %s: %w", addr, err)
	}
	if cfg.Token == "" {
		logger.Warn("no ledger token configured; mutating tools will be refused")
	}
	server, err := newServer(conn, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return server, nil
}

// newServer binds every ledger tool and resource to one MCP server.
func newServer(conn *grpc.ClientConn, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	client := ledgerv1.NewLedgerServiceClient(conn)

	notify := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			logger.Warn("mcp resource updated notify failed", zap.String("uri", uri), zap.Error(err))
		}
	}

	registrar := serverRegistrationAdapter{server: mcpServer}
	if err := registerLedgerTools(registrar, client, notify); err != nil {
		return nil, fmt.Errorf("register ledger tools: %w", err)
	}
	registerLedgerResources(registrar, client)

	return &Server{mcpServer: mcpServer, conn: conn, logger: logger}, nil
}

// Close releases the ledger connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

// serveWithTransport runs MCP on transport and closes the ledger connection
// on the way out.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}
