// Package ledger parses ledger command flags and starts the ledger server.
package ledger

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/waybill/internal/platform/cmd"
	"github.com/louisbranch/waybill/internal/platform/otel"
	"github.com/louisbranch/waybill/internal/services/ledger/api/grpc/interceptors"
	server "github.com/louisbranch/waybill/internal/services/ledger/app"
	"github.com/louisbranch/waybill/internal/services/ledger/auth"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
)

// Config holds ledger command configuration.
type Config struct {
	Port   int    `env:"WAYBILL_LEDGER_PORT" envDefault:"8090"`
	Addr   string `env:"WAYBILL_LEDGER_ADDR"`
	DBPath string `env:"WAYBILL_LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	Store  string `env:"WAYBILL_LEDGER_STORE" envDefault:"sqlite"`
	// Anonymous starts the server without an identity verifier: reads work,
	// mutations are refused.
	Anonymous bool `env:"WAYBILL_LEDGER_ANONYMOUS"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The ledger server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The ledger server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The sqlite database path")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Storage backend: sqlite or memory")
	fs.BoolVar(&cfg.Anonymous, "anonymous", cfg.Anonymous, "Serve read-only without identity verification")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr resolves the address the server binds.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the ledger gRPC service.
func Run(ctx context.Context, cfg Config) error {
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return fmt.Errorf("load event keyring: %w", err)
	}
	var verifier interceptors.TokenVerifier
	if !cfg.Anonymous {
		verifierCfg, err := auth.LoadVerifierConfigFromEnv(nil)
		if err != nil {
			return fmt.Errorf("load identity verifier: %w", err)
		}
		verifier = func(token string) (identity.Identity, error) {
			return auth.Verify(token, verifierCfg)
		}
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, func(ctx context.Context, logger *zap.Logger) error {
		if verifier == nil {
			logger.Warn("identity verification disabled; mutations will be refused")
		}
		return server.Run(ctx, server.Config{
			Addr:      cfg.ListenAddr(),
			StoreKind: cfg.Store,
			DBPath:    cfg.DBPath,
			Keyring:   keyring,
			Verifier:  verifier,
			Logger:    logger,
			Tracer:    otel.Tracer("waybill/ledger"),
		})
	})
}
