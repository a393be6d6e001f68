package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/platform/logging"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
)

// Host orders calls and runs each one in its own transaction.
type Host struct {
	store  storage.Store
	logger *zap.Logger
	tracer trace.Tracer
	mu     sync.Mutex
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the call logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) { h.logger = logging.OrNop(logger) }
}

// WithTracer sets the tracer used for per-call spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *Host) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

// New builds a host over store.
func New(store storage.Store, opts ...Option) (*Host, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	h := &Host{
		store:  store,
		logger: zap.NewNop(),
		tracer: noop.NewTracerProvider().Tracer("ledger"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Store returns the underlying store.
func (h *Host) Store() storage.Store {
	return h.store
}

// mutate runs fn as one ordered call at the next ledger height.
func (h *Host) mutate(ctx context.Context, op string, caller identity.Identity, productID string, fn func(context.Context, storage.Tx, ledger.Call) error) error {
	ctx, span := h.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.String("ledger.caller", caller.String()),
		attribute.String("ledger.product_id", productID),
	))
	defer span.End()

	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	var height uint64
	err := h.store.Update(ctx, func(tx storage.Tx) error {
		var err error
		height, err = tx.AdvanceLedgerHeight(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, tx, ledger.Call{Caller: caller, Height: height})
	})

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("caller", caller.String()),
		zap.String("product_id", productID),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		code := apperrors.GetCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		if code == apperrors.CodeUnknown {
			h.logger.Error("ledger call failed", append(fields, zap.Error(err))...)
		} else {
			h.logger.Info("ledger call rejected", append(fields, zap.String("code", string(code)))...)
		}
		return err
	}
	span.SetAttributes(attribute.Int64("ledger.height", int64(height)))
	h.logger.Debug("ledger call committed", append(fields, zap.Uint64("height", height))...)
	return nil
}

// view runs fn in a read transaction.
func (h *Host) view(ctx context.Context, op string, fn func(context.Context, storage.Tx) error) error {
	ctx, span := h.tracer.Start(ctx, "ledger."+op)
	defer span.End()
	err := h.store.View(ctx, func(tx storage.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.GetCode(err)))
	}
	return err
}

// RegisterProduct registers a product owned by caller.
func (h *Host) RegisterProduct(ctx context.Context, caller identity.Identity, in ledger.RegisterInput) (string, error) {
	var id string
	err := h.mutate(ctx, "register_product", caller, in.ID, func(ctx context.Context, tx storage.Tx, call ledger.Call) error {
		var err error
		id, err = ledger.Register(ctx, tx, call, in)
		return err
	})
	return id, err
}

// RecordEvent appends a caller supplied event and returns its index.
func (h *Host) RecordEvent(ctx context.Context, caller identity.Identity, in ledger.RecordEventInput) (uint64, error) {
	var index uint64
	err := h.mutate(ctx, "record_event", caller, in.ProductID, func(ctx context.Context, tx storage.Tx, call ledger.Call) error {
		var err error
		index, err = ledger.RecordEvent(ctx, tx, call, in)
		return err
	})
	return index, err
}

// UpdateStatus overwrites a product's status label.
func (h *Host) UpdateStatus(ctx context.Context, caller identity.Identity, productID, status string) (product.Status, error) {
	var out product.Status
	err := h.mutate(ctx, "update_status", caller, productID, func(ctx context.Context, tx storage.Tx, call ledger.Call) error {
		var err error
		out, err = ledger.UpdateStatus(ctx, tx, call, productID, status)
		return err
	})
	return out, err
}

// TransferCustody hands a product to newHolder.
func (h *Host) TransferCustody(ctx context.Context, caller identity.Identity, productID string, newHolder identity.Identity, location string) (identity.Identity, error) {
	var out identity.Identity
	err := h.mutate(ctx, "transfer_custody", caller, productID, func(ctx context.Context, tx storage.Tx, call ledger.Call) error {
		var err error
		out, err = ledger.TransferCustody(ctx, tx, call, productID, newHolder, location)
		return err
	})
	return out, err
}

// AuthorizeHandler grants handler event recording rights.
func (h *Host) AuthorizeHandler(ctx context.Context, caller identity.Identity, productID string, handler identity.Identity) (bool, error) {
	var ok bool
	err := h.mutate(ctx, "authorize_handler", caller, productID, func(ctx context.Context, tx storage.Tx, call ledger.Call) error {
		var err error
		ok, err = ledger.AuthorizeHandler(ctx, tx, call, productID, handler)
		return err
	})
	return ok, err
}

// RevokeHandler removes handler's grant.
func (h *Host) RevokeHandler(ctx context.Context, caller identity.Identity, productID string, handler identity.Identity) (bool, error) {
	var ok bool
	err := h.mutate(ctx, "revoke_handler", caller, productID, func(ctx context.Context, tx storage.Tx, call ledger.Call) error {
		var err error
		ok, err = ledger.RevokeHandler(ctx, tx, call, productID, handler)
		return err
	})
	return ok, err
}

// GetProduct looks a product up.
func (h *Host) GetProduct(ctx context.Context, productID string) (product.Product, bool, error) {
	var (
		p     product.Product
		found bool
	)
	err := h.view(ctx, "get_product", func(ctx context.Context, tx storage.Tx) error {
		var err error
		p, found, err = ledger.GetProduct(ctx, tx, productID)
		return err
	})
	return p, found, err
}

// GetEvent looks an event up.
func (h *Host) GetEvent(ctx context.Context, productID string, index uint64) (event.Event, bool, error) {
	var (
		evt   event.Event
		found bool
	)
	err := h.view(ctx, "get_event", func(ctx context.Context, tx storage.Tx) error {
		var err error
		evt, found, err = ledger.GetEvent(ctx, tx, productID, index)
		return err
	})
	return evt, found, err
}

// GetEventCount returns a product's event counter.
func (h *Host) GetEventCount(ctx context.Context, productID string) (uint64, bool, error) {
	var (
		count uint64
		found bool
	)
	err := h.view(ctx, "get_event_count", func(ctx context.Context, tx storage.Tx) error {
		var err error
		count, found, err = ledger.GetEventCount(ctx, tx, productID)
		return err
	})
	return count, found, err
}

// IsAuthorized reports whether handler holds a grant.
func (h *Host) IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error) {
	var ok bool
	err := h.view(ctx, "is_authorized", func(ctx context.Context, tx storage.Tx) error {
		var err error
		ok, err = ledger.IsAuthorized(ctx, tx, productID, handler)
		return err
	})
	return ok, err
}

// TotalProducts returns the global product counter.
func (h *Host) TotalProducts(ctx context.Context) (uint64, error) {
	var total uint64
	err := h.view(ctx, "get_total_products", func(ctx context.Context, tx storage.Tx) error {
		var err error
		total, err = ledger.TotalProducts(ctx, tx)
		return err
	})
	return total, err
}

// LedgerHeight returns the height of the last committed call.
func (h *Host) LedgerHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := h.view(ctx, "ledger_height", func(ctx context.Context, tx storage.Tx) error {
		var err error
		height, err = tx.LedgerHeight(ctx)
		return err
	})
	return height, err
}

// VerifyIntegrity checks one product's chain, or every chain when productID
// is empty.
func (h *Host) VerifyIntegrity(ctx context.Context, productID string) (storage.IntegrityReport, error) {
	ctx, span := h.tracer.Start(ctx, "ledger.verify_integrity", trace.WithAttributes(
		attribute.String("ledger.product_id", productID),
	))
	defer span.End()
	report, err := h.store.VerifyIntegrity(ctx, productID)
	if err != nil {
		span.RecordError(err)
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return storage.IntegrityReport{}, notFound(productID)
		}
		if apperrors.HasCode(err, apperrors.CodeIntegrityViolation) {
			h.logger.Error("event integrity violation", zap.String("product_id", productID), zap.Error(err))
		}
		return storage.IntegrityReport{}, err
	}
	return report, nil
}
