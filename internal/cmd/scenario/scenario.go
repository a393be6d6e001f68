// Package scenario parses scenario command flags and runs Lua scenarios.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/waybill/internal/platform/cmd"
	"github.com/louisbranch/waybill/internal/services/ledger/auth"
	"github.com/louisbranch/waybill/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	// GRPCAddr targets a remote ledger; empty runs in process.
	GRPCAddr   string        `env:"WAYBILL_SCENARIO_LEDGER_ADDR"`
	Scenario   string        `env:"WAYBILL_SCENARIO_FILE"`
	Assertions bool          `env:"WAYBILL_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"WAYBILL_SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"WAYBILL_SCENARIO_TIMEOUT" envDefault:"10s"`
	Replay     int           `env:"WAYBILL_SCENARIO_REPLAY"  envDefault:"1"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "ledger server address (empty runs an in-process ledger)")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.IntVar(&cfg.Replay, "replay", cfg.Replay, "run an in-process scenario N times and compare state digests")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command and prints a summary to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}
	if cfg.Replay < 1 {
		return fmt.Errorf("replay must be at least 1, got %d", cfg.Replay)
	}

	runCfg := scenario.Config{
		GRPCAddr:   cfg.GRPCAddr,
		Timeout:    cfg.Timeout,
		Assertions: scenario.AssertionStrict,
		Replay:     cfg.Replay,
		Verbose:    cfg.Verbose,
	}
	if !cfg.Assertions {
		runCfg.Assertions = scenario.AssertionLogOnly
	}
	if cfg.GRPCAddr != "" {
		signer, err := auth.LoadSignerConfigFromEnv(nil)
		if err != nil {
			return fmt.Errorf("load identity signer: %w", err)
		}
		runCfg.Signer = signer
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context, logger *zap.Logger) error {
		runCfg.Logger = logger
		report, err := scenario.RunFile(ctx, runCfg, cfg.Scenario)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "scenario %q passed: %d steps, %d run(s)\n", report.Scenario, report.Steps, report.Runs); err != nil {
			return err
		}
		if report.Digest != "" {
			if _, err := fmt.Fprintf(out, "state digest %s\n", report.Digest); err != nil {
				return err
			}
		}
		return nil
	})
}
