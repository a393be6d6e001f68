package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
)

const (
	counterTotalProducts = "total_products"
	counterLedgerHeight  = "ledger_height"
)

const productColumns = `id, name, manufacturer, origin, created_at, status_label, holder, batch`

const eventColumns = `product_id, event_index, event_type, location, ledger_timestamp, handler, notes,
	hash, prev_hash, chain_hash, signature_key_id, signature`

type tx struct {
	sqlTx    *sql.Tx
	writable bool
	keyring  *integrity.Keyring
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (t *tx) checkWrite(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.writable {
		return storage.ErrReadOnly
	}
	return nil
}

func (t *tx) Product(ctx context.Context, id string) (product.Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return product.Product{}, false, err
	}
	row := t.sqlTx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, false, nil
	}
	if err != nil {
		return product.Product{}, false, fmt.Errorf("get product: %w", err)
	}
	return p, true, nil
}

func (t *tx) CreateProduct(ctx context.Context, p product.Product) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	_, err := t.sqlTx.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`, event_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		p.ID, p.Name, p.Manufacturer.String(), p.Origin, int64(p.CreatedAt),
		p.Status.Label, p.Holder.String(), p.Batch,
	)
	if err != nil {
		if isConstraintError(err) {
			return apperrors.WithMetadata(apperrors.CodeAlreadyExists, "product already exists", map[string]string{"ProductID": p.ID})
		}
		return fmt.Errorf("insert product: %w", err)
	}
	if _, err := t.bumpCounter(ctx, counterTotalProducts); err != nil {
		return err
	}
	return nil
}

func (t *tx) UpdateProduct(ctx context.Context, p product.Product) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	res, err := t.sqlTx.ExecContext(ctx,
		`UPDATE products SET status_label = ?, holder = ? WHERE id = ?`,
		p.Status.Label, p.Holder.String(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *tx) TotalProducts(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.counter(ctx, counterTotalProducts)
}

func (t *tx) ListProducts(ctx context.Context, query storage.ProductQuery) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	where := []string{"id > ?"}
	args := []any{query.AfterID}
	if !query.Holder.IsZero() {
		where = append(where, "holder = ?")
		args = append(args, query.Holder.String())
	}
	args = append(args, limitArg(query.Limit))

	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+strings.Join(where, " AND ")+` ORDER BY id LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (t *tx) EventCount(ctx context.Context, productID string) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var count int64
	err := t.sqlTx.QueryRowContext(ctx, `SELECT event_count FROM products WHERE id = ?`, productID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get event count: %w", err)
	}
	return uint64(count), true, nil
}

func (t *tx) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := t.checkWrite(ctx); err != nil {
		return event.Event{}, err
	}
	count, ok, err := t.EventCount(ctx, evt.ProductID)
	if err != nil {
		return event.Event{}, err
	}
	if !ok {
		return event.Event{}, storage.ErrNotFound
	}
	if evt.Index != count {
		return event.Event{}, fmt.Errorf("event index %d does not match count %d", evt.Index, count)
	}

	prev := ""
	if count > 0 {
		err := t.sqlTx.QueryRowContext(ctx,
			`SELECT chain_hash FROM events WHERE product_id = ? AND event_index = ?`,
			evt.ProductID, int64(count-1),
		).Scan(&prev)
		if err != nil {
			return event.Event{}, fmt.Errorf("load previous chain hash: %w", err)
		}
	}

	sealed, err := integrity.Seal(t.keyring, evt, prev)
	if err != nil {
		return event.Event{}, err
	}
	_, err = t.sqlTx.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`, event_kind) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sealed.ProductID, int64(sealed.Index), sealed.Type.Label, sealed.Location,
		int64(sealed.Timestamp), sealed.Handler.String(), sealed.Notes,
		sealed.Hash, sealed.PrevHash, sealed.ChainHash, sealed.SignatureKeyID, sealed.Signature,
		string(sealed.Type.Kind),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}
	if _, err := t.sqlTx.ExecContext(ctx,
		`UPDATE products SET event_count = event_count + 1 WHERE id = ?`, sealed.ProductID,
	); err != nil {
		return event.Event{}, fmt.Errorf("increment event count: %w", err)
	}
	return sealed, nil
}

func (t *tx) Event(ctx context.Context, productID string, index uint64) (event.Event, bool, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, false, err
	}
	if index > 1<<63-1 {
		return event.Event{}, false, nil
	}
	row := t.sqlTx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE product_id = ? AND event_index = ?`,
		productID, int64(index),
	)
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, false, nil
	}
	if err != nil {
		return event.Event{}, false, fmt.Errorf("get event: %w", err)
	}
	return evt, true, nil
}

func (t *tx) ListEvents(ctx context.Context, query storage.EventQuery) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	where := []string{"product_id = ?"}
	args := []any{query.ProductID}
	if query.After != nil {
		where = append(where, "event_index > ?")
		args = append(args, int64(*query.After))
	}
	if cond := query.Filter.SQL(); cond.Clause != "" {
		where = append(where, cond.Clause)
		args = append(args, cond.Params...)
	}
	args = append(args, limitArg(query.Limit))

	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE `+strings.Join(where, " AND ")+` ORDER BY event_index LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (t *tx) IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found int
	err := t.sqlTx.QueryRowContext(ctx,
		`SELECT 1 FROM grants WHERE product_id = ? AND handler = ?`, productID, handler.String(),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get grant: %w", err)
	}
	return true, nil
}

func (t *tx) ListGrants(ctx context.Context, productID string) ([]identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT handler FROM grants WHERE product_id = ? ORDER BY handler`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var handlers []identity.Identity
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		handler, err := identity.New(raw)
		if err != nil {
			return nil, fmt.Errorf("decode grant handler: %w", err)
		}
		handlers = append(handlers, handler)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return handlers, nil
}

func (t *tx) PutGrant(ctx context.Context, productID string, handler identity.Identity) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	if _, err := t.sqlTx.ExecContext(ctx,
		`INSERT OR IGNORE INTO grants (product_id, handler) VALUES (?, ?)`, productID, handler.String(),
	); err != nil {
		return fmt.Errorf("put grant: %w", err)
	}
	return nil
}

func (t *tx) DeleteGrant(ctx context.Context, productID string, handler identity.Identity) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	if _, err := t.sqlTx.ExecContext(ctx,
		`DELETE FROM grants WHERE product_id = ? AND handler = ?`, productID, handler.String(),
	); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

func (t *tx) LedgerHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.counter(ctx, counterLedgerHeight)
}

func (t *tx) AdvanceLedgerHeight(ctx context.Context) (uint64, error) {
	if err := t.checkWrite(ctx); err != nil {
		return 0, err
	}
	return t.bumpCounter(ctx, counterLedgerHeight)
}

func (t *tx) counter(ctx context.Context, name string) (uint64, error) {
	var value int64
	if err := t.sqlTx.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("get counter %s: %w", name, err)
	}
	return uint64(value), nil
}

func (t *tx) bumpCounter(ctx context.Context, name string) (uint64, error) {
	var value int64
	err := t.sqlTx.QueryRowContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value`, name,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return uint64(value), nil
}

func (t *tx) productIDs(ctx context.Context, productID string) ([]string, error) {
	if productID != "" {
		_, ok, err := t.Product(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, storage.ErrNotFound
		}
		return []string{productID}, nil
	}

	rows, err := t.sqlTx.QueryContext(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product ids: %w", err)
	}
	return ids, nil
}

func (t *tx) verifyProduct(ctx context.Context, keyring *integrity.Keyring, productID string) (uint64, error) {
	count, _, err := t.EventCount(ctx, productID)
	if err != nil {
		return 0, err
	}
	rows, err := t.sqlTx.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE product_id = ? ORDER BY event_index`, productID,
	)
	if err != nil {
		return 0, fmt.Errorf("list events for verification: %w", err)
	}
	defer rows.Close()

	verifier := integrity.NewChainVerifier(keyring, productID)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return 0, fmt.Errorf("scan event: %w", err)
		}
		if err := verifier.Check(evt); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate events: %w", err)
	}
	if err := verifier.Finish(count); err != nil {
		return 0, err
	}
	return verifier.Verified(), nil
}

func collectEvents(rows *sql.Rows) ([]event.Event, error) {
	var out []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func scanProduct(row rowScanner) (product.Product, error) {
	var (
		p                    product.Product
		manufacturer, holder string
		status               string
		createdAt            int64
	)
	if err := row.Scan(&p.ID, &p.Name, &manufacturer, &p.Origin, &createdAt, &status, &holder, &p.Batch); err != nil {
		return product.Product{}, err
	}
	p.CreatedAt = uint64(createdAt)
	if err := p.Manufacturer.UnmarshalText([]byte(manufacturer)); err != nil {
		return product.Product{}, fmt.Errorf("decode manufacturer: %w", err)
	}
	if err := p.Holder.UnmarshalText([]byte(holder)); err != nil {
		return product.Product{}, fmt.Errorf("decode holder: %w", err)
	}
	if err := p.Status.UnmarshalText([]byte(status)); err != nil {
		return product.Product{}, fmt.Errorf("decode status: %w", err)
	}
	return p, nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt              event.Event
		index, timestamp int64
		typ, handler     string
	)
	if err := row.Scan(
		&evt.ProductID, &index, &typ, &evt.Location, &timestamp, &handler, &evt.Notes,
		&evt.Hash, &evt.PrevHash, &evt.ChainHash, &evt.SignatureKeyID, &evt.Signature,
	); err != nil {
		return event.Event{}, err
	}
	evt.Index = uint64(index)
	evt.Timestamp = uint64(timestamp)
	if err := evt.Type.UnmarshalText([]byte(typ)); err != nil {
		return event.Event{}, fmt.Errorf("decode event type: %w", err)
	}
	if err := evt.Handler.UnmarshalText([]byte(handler)); err != nil {
		return event.Event{}, fmt.Errorf("decode handler: %w", err)
	}
	return evt, nil
}

// limitArg maps a zero limit to SQLite's unbounded LIMIT -1.
func limitArg(limit int) int64 {
	if limit <= 0 {
		return -1
	}
	return int64(limit)
}
