package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	platformgrpc "github.com/louisbranch/waybill/internal/platform/grpc"
	"github.com/louisbranch/waybill/internal/platform/logging"
	"github.com/louisbranch/waybill/internal/platform/timeouts"
	"github.com/louisbranch/waybill/internal/services/ledger/auth"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
)

// Config controls scenario execution.
type Config struct {
	// GRPCAddr selects a remote ledger. Empty runs against an in-process
	// ledger on a memory store.
	GRPCAddr string
	// Signer mints actor tokens for remote runs.
	Signer     auth.SignerConfig
	Timeout    time.Duration
	Assertions AssertionMode
	// Replay runs a local scenario this many times and requires every run
	// to end in the same state digest.
	Replay  int
	Verbose bool
	Logger  *zap.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
		Replay:     1,
	}
}

// Report summarizes a finished scenario.
type Report struct {
	Scenario string
	Steps    int
	Runs     int
	// Digest is the final state digest of a local run; remote runs leave it empty.
	Digest string
}

// Runner executes one scenario against one ledger.
type Runner struct {
	ledger     backend
	assertions Assertions
	logger     *zap.Logger
	verbose    bool
	timeout    time.Duration
}

func newRunner(cfg Config, target backend) *Runner {
	logger := logging.OrNop(cfg.Logger)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Runner{
		ledger:     target,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
	}
}

// Close releases the ledger held by the runner.
func (r *Runner) Close() error {
	if r == nil || r.ledger == nil {
		return nil
	}
	return r.ledger.Close()
}

// RunFile loads a scenario file and runs it.
func RunFile(ctx context.Context, cfg Config, path string) (Report, error) {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return Report{}, err
	}
	return Run(ctx, cfg, scenario)
}

// Run executes scenario once remotely, or cfg.Replay times locally.
func Run(ctx context.Context, cfg Config, scenario *Scenario) (Report, error) {
	if scenario == nil {
		return Report{}, errors.New("scenario is required")
	}
	if strings.TrimSpace(cfg.GRPCAddr) != "" {
		if cfg.Replay > 1 {
			return Report{}, errors.New("replay requires a local ledger")
		}
		return runRemote(ctx, cfg, scenario)
	}
	return runLocal(ctx, cfg, scenario)
}

func runRemote(ctx context.Context, cfg Config, scenario *Scenario) (Report, error) {
	logger := logging.OrNop(cfg.Logger)
	conn, err := platformgrpc.DialWithHealth(ctx, cfg.GRPCAddr, ledgerv1.ServiceName, timeouts.HealthWait, logger, platformgrpc.ClientOptions("")...)
	if err != nil {
		return Report{}, fmt.Errorf("connect to ledger: %w", err)
	}
	runner := newRunner(cfg, newGRPCBackend(conn, cfg.Signer))
	defer runner.Close()
	if err := runner.RunScenario(ctx, scenario); err != nil {
		return Report{}, err
	}
	return Report{Scenario: scenario.Name, Steps: len(scenario.Steps), Runs: 1}, nil
}

func runLocal(ctx context.Context, cfg Config, scenario *Scenario) (Report, error) {
	runs := cfg.Replay
	if runs < 1 {
		runs = 1
	}
	var first string
	for run := 1; run <= runs; run++ {
		digest, err := runLocalOnce(ctx, cfg, scenario)
		if err != nil {
			if runs > 1 {
				return Report{}, fmt.Errorf("run %d: %w", run, err)
			}
			return Report{}, err
		}
		if run == 1 {
			first = digest
			continue
		}
		if digest != first {
			return Report{}, fmt.Errorf("run %d digest %s differs from run 1 digest %s", run, digest, first)
		}
	}
	return Report{Scenario: scenario.Name, Steps: len(scenario.Steps), Runs: runs, Digest: first}, nil
}

func runLocalOnce(ctx context.Context, cfg Config, scenario *Scenario) (string, error) {
	local, err := newHostBackend()
	if err != nil {
		return "", fmt.Errorf("open local ledger: %w", err)
	}
	runner := newRunner(cfg, local)
	defer runner.Close()
	if err := runner.RunScenario(ctx, scenario); err != nil {
		return "", err
	}
	return local.Digest(ctx)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start", zap.String("scenario", scenario.Name), zap.Int("steps", len(scenario.Steps)))
	state := &scenarioState{}
	for index, step := range scenario.Steps {
		stepNumber := index + 1
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step done", zap.Int("step", stepNumber), zap.String("kind", step.Kind), zap.Duration("duration", time.Since(stepStart)))
	}
	r.logf("scenario done", zap.String("scenario", scenario.Name))
	return nil
}

func (r *Runner) logf(msg string, fields ...zap.Field) {
	if !r.verbose {
		return
	}
	r.logger.Info(msg, fields...)
}

type scenarioState struct {
	actor identity.Identity
}

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "as":
		actor, err := parseActor(optionalString(step.Args, "actor", ""))
		if err != nil {
			return err
		}
		state.actor = actor
		return nil
	case "register", "record_event", "update_status", "transfer", "authorize", "revoke":
		return r.expectOutcome(step, r.runCall(ctx, state, step))
	case "expect_product":
		return r.runExpectProduct(ctx, step)
	case "expect_count":
		return r.runExpectCount(ctx, step)
	case "expect_total":
		return r.runExpectTotal(ctx, step)
	case "expect_authorized":
		return r.runExpectAuthorized(ctx, step)
	case "verify":
		return r.ledger.Verify(ctx, optionalString(step.Args, "id", ""))
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runCall(ctx context.Context, state *scenarioState, step Step) error {
	args := step.Args
	switch step.Kind {
	case "register":
		return r.ledger.Register(ctx, state.actor, ledger.RegisterInput{
			ID:     requiredString(args, "id"),
			Name:   requiredString(args, "name"),
			Origin: requiredString(args, "origin"),
			Batch:  optionalString(args, "batch", ""),
		})
	case "record_event":
		_, err := r.ledger.RecordEvent(ctx, state.actor, ledger.RecordEventInput{
			ProductID: requiredString(args, "id"),
			Type:      requiredString(args, "type"),
			Location:  requiredString(args, "location"),
			Notes:     optionalString(args, "notes", ""),
		})
		return err
	case "update_status":
		return r.ledger.UpdateStatus(ctx, state.actor, requiredString(args, "id"), requiredString(args, "status"))
	case "transfer":
		to, err := parseActor(requiredString(args, "to"))
		if err != nil {
			return err
		}
		return r.ledger.Transfer(ctx, state.actor, requiredString(args, "id"), to, optionalString(args, "location", ""))
	case "authorize", "revoke":
		handler, err := parseActor(requiredString(args, "handler"))
		if err != nil {
			return err
		}
		if step.Kind == "authorize" {
			return r.ledger.Authorize(ctx, state.actor, requiredString(args, "id"), handler)
		}
		return r.ledger.Revoke(ctx, state.actor, requiredString(args, "id"), handler)
	}
	return fmt.Errorf("unknown call %q", step.Kind)
}

// expectOutcome compares a call result against an optional expect_error code.
func (r *Runner) expectOutcome(step Step, err error) error {
	want := optionalString(step.Args, "expect_error", "")
	if want == "" {
		return err
	}
	if err == nil {
		return r.assertions.Failf("expected error %s, got success", want)
	}
	if got := apperrors.GetCode(err); string(got) != want {
		return r.assertions.Failf("expected error %s, got %s (%v)", want, got, err)
	}
	return nil
}

func (r *Runner) runExpectProduct(ctx context.Context, step Step) error {
	id := requiredString(step.Args, "id")
	product, found, err := r.ledger.Product(ctx, id)
	if err != nil {
		return err
	}
	wantExists := optionalBool(step.Args, "exists", true)
	if found != wantExists {
		return r.assertions.Failf("product %s exists = %v, want %v", id, found, wantExists)
	}
	if !found {
		return nil
	}
	checks := []struct {
		key string
		got string
	}{
		{"name", product.Name},
		{"origin", product.Origin},
		{"manufacturer", product.Manufacturer},
		{"holder", product.Holder},
		{"status", product.Status},
		{"batch", product.Batch},
	}
	for _, check := range checks {
		want, ok := step.Args[check.key].(string)
		if !ok {
			continue
		}
		if check.got != want {
			if err := r.assertions.Failf("product %s %s = %q, want %q", id, check.key, check.got, want); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) runExpectCount(ctx context.Context, step Step) error {
	id := requiredString(step.Args, "id")
	want := optionalInt(step.Args, "count", 0)
	count, found, err := r.ledger.EventCount(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return r.assertions.Failf("product %s not found", id)
	}
	if count != uint64(want) {
		return r.assertions.Failf("product %s event count = %d, want %d", id, count, want)
	}
	return nil
}

func (r *Runner) runExpectTotal(ctx context.Context, step Step) error {
	want := optionalInt(step.Args, "total", 0)
	total, err := r.ledger.TotalProducts(ctx)
	if err != nil {
		return err
	}
	if total != uint64(want) {
		return r.assertions.Failf("total products = %d, want %d", total, want)
	}
	return nil
}

func (r *Runner) runExpectAuthorized(ctx context.Context, step Step) error {
	id := requiredString(step.Args, "id")
	handlerName := requiredString(step.Args, "handler")
	handler, err := parseActor(handlerName)
	if err != nil {
		return err
	}
	want := optionalBool(step.Args, "authorized", true)
	got, err := r.ledger.IsAuthorized(ctx, id, handler)
	if err != nil {
		return err
	}
	if got != want {
		return r.assertions.Failf("handler %s authorized for %s = %v, want %v", handlerName, id, got, want)
	}
	return nil
}

// parseActor maps an empty name to the anonymous caller.
func parseActor(name string) (identity.Identity, error) {
	if strings.TrimSpace(name) == "" {
		return identity.Identity{}, nil
	}
	actor, err := identity.New(name)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("actor %q: %w", name, err)
	}
	return actor, nil
}

func requiredString(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key].(string)
	if !ok {
		return fallback
	}
	return value
}

func optionalInt(args map[string]any, key string, fallback int) int {
	switch value := args[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		return fallback
	}
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	value, ok := args[key].(bool)
	if !ok {
		return fallback
	}
	return value
}
