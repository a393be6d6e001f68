// Package memory is an in-process ledger store. Update stages its writes in
// an overlay over the committed state and applies them only on success.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
)

type grantKey struct {
	productID string
	handler   string
}

type state struct {
	products map[string]product.Product
	counts   map[string]uint64
	events   map[string][]event.Event
	grants   map[string]map[string]struct{}
	total    uint64
	height   uint64
}

func newState() *state {
	return &state{
		products: make(map[string]product.Product),
		counts:   make(map[string]uint64),
		events:   make(map[string][]event.Event),
		grants:   make(map[string]map[string]struct{}),
	}
}

// staged holds the writes of one Update. Only touched keys are recorded;
// events holds the entries appended after the committed ones and grants maps
// a key to true when granted and false when revoked.
type staged struct {
	products map[string]product.Product
	counts   map[string]uint64
	events   map[string][]event.Event
	grants   map[grantKey]bool
	total    uint64
	height   uint64
}

func newStaged(base *state) *staged {
	return &staged{
		products: make(map[string]product.Product),
		counts:   make(map[string]uint64),
		events:   make(map[string][]event.Event),
		grants:   make(map[grantKey]bool),
		total:    base.total,
		height:   base.height,
	}
}

// apply writes the staged keys into base. The caller holds the write lock.
func (w *staged) apply(base *state) {
	for id, p := range w.products {
		base.products[id] = p
	}
	for id, count := range w.counts {
		base.counts[id] = count
	}
	for id, appended := range w.events {
		base.events[id] = append(base.events[id], appended...)
	}
	for key, granted := range w.grants {
		handlers := base.grants[key.productID]
		if granted {
			if handlers == nil {
				handlers = make(map[string]struct{})
				base.grants[key.productID] = handlers
			}
			handlers[key.handler] = struct{}{}
			continue
		}
		delete(handlers, key.handler)
		if len(handlers) == 0 {
			delete(base.grants, key.productID)
		}
	}
	base.total = w.total
	base.height = w.height
}

// Store keeps ledger state in memory.
type Store struct {
	mu      sync.RWMutex
	state   *state
	keyring *integrity.Keyring
	closed  bool
}

// NewStore returns an empty store that seals events with keyring.
func NewStore(keyring *integrity.Keyring) (*Store, error) {
	if keyring == nil {
		return nil, fmt.Errorf("event keyring is required")
	}
	return &Store{state: newState(), keyring: keyring}, nil
}

// Update runs fn against a staged overlay of the state and applies the
// overlay if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("storage is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("storage is closed")
	}

	writes := newStaged(s.state)
	if err := fn(&tx{base: s.state, writes: writes, keyring: s.keyring}); err != nil {
		return err
	}
	writes.apply(s.state)
	return nil
}

// View runs fn against the current state.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("storage is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	return fn(&tx{base: s.state, keyring: s.keyring})
}

// VerifyIntegrity checks one product's chain or every chain.
func (s *Store) VerifyIntegrity(ctx context.Context, productID string) (storage.IntegrityReport, error) {
	var report storage.IntegrityReport
	err := s.View(ctx, func(storage.Tx) error {
		ids := []string{productID}
		if productID == "" {
			ids = slices.Sorted(maps.Keys(s.state.products))
		} else if _, ok := s.state.products[productID]; !ok {
			return storage.ErrNotFound
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			verifier := integrity.NewChainVerifier(s.keyring, id)
			for _, evt := range s.state.events[id] {
				if err := verifier.Check(evt); err != nil {
					return err
				}
			}
			if err := verifier.Finish(s.state.counts[id]); err != nil {
				return err
			}
			report.Products++
			report.Events += verifier.Verified()
		}
		return nil
	})
	return report, err
}

// Close releases the state.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// tx reads through writes (nil inside View) to the committed base.
type tx struct {
	base    *state
	writes  *staged
	keyring *integrity.Keyring
}

func (t *tx) checkWrite(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.writes == nil {
		return storage.ErrReadOnly
	}
	return nil
}

func (t *tx) product(id string) (product.Product, bool) {
	if t.writes != nil {
		if p, ok := t.writes.products[id]; ok {
			return p, true
		}
	}
	p, ok := t.base.products[id]
	return p, ok
}

func (t *tx) count(id string) (uint64, bool) {
	if t.writes != nil {
		if count, ok := t.writes.counts[id]; ok {
			return count, true
		}
	}
	count, ok := t.base.counts[id]
	return count, ok
}

func (t *tx) event(productID string, index uint64) (event.Event, bool) {
	committed := t.base.events[productID]
	if index < uint64(len(committed)) {
		return committed[index], true
	}
	if t.writes == nil {
		return event.Event{}, false
	}
	pending := t.writes.events[productID]
	offset := index - uint64(len(committed))
	if offset < uint64(len(pending)) {
		return pending[offset], true
	}
	return event.Event{}, false
}

func (t *tx) granted(key grantKey) bool {
	if t.writes != nil {
		if granted, ok := t.writes.grants[key]; ok {
			return granted
		}
	}
	_, ok := t.base.grants[key.productID][key.handler]
	return ok
}

func (t *tx) productIDs() []string {
	ids := slices.Collect(maps.Keys(t.base.products))
	if t.writes != nil {
		for id := range t.writes.products {
			if _, ok := t.base.products[id]; !ok {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids
}

func (t *tx) Product(ctx context.Context, id string) (product.Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return product.Product{}, false, err
	}
	p, ok := t.product(id)
	return p, ok, nil
}

func (t *tx) CreateProduct(ctx context.Context, p product.Product) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	if _, ok := t.product(p.ID); ok {
		return fmt.Errorf("product %s already stored", p.ID)
	}
	t.writes.products[p.ID] = p
	t.writes.counts[p.ID] = 0
	t.writes.total++
	return nil
}

func (t *tx) UpdateProduct(ctx context.Context, p product.Product) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	current, ok := t.product(p.ID)
	if !ok {
		return storage.ErrNotFound
	}
	current.Status = p.Status
	current.Holder = p.Holder
	t.writes.products[p.ID] = current
	return nil
}

func (t *tx) TotalProducts(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t.writes != nil {
		return t.writes.total, nil
	}
	return t.base.total, nil
}

func (t *tx) ListProducts(ctx context.Context, query storage.ProductQuery) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []product.Product
	for _, id := range t.productIDs() {
		if query.AfterID != "" && id <= query.AfterID {
			continue
		}
		p, _ := t.product(id)
		if !query.Holder.IsZero() && !p.IsHolder(query.Holder) {
			continue
		}
		out = append(out, p)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

func (t *tx) EventCount(ctx context.Context, productID string) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	count, ok := t.count(productID)
	return count, ok, nil
}

func (t *tx) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := t.checkWrite(ctx); err != nil {
		return event.Event{}, err
	}
	count, ok := t.count(evt.ProductID)
	if !ok {
		return event.Event{}, storage.ErrNotFound
	}
	if evt.Index != count {
		return event.Event{}, fmt.Errorf("event index %d does not match count %d", evt.Index, count)
	}

	prev := ""
	if count > 0 {
		last, _ := t.event(evt.ProductID, count-1)
		prev = last.ChainHash
	}
	sealed, err := integrity.Seal(t.keyring, evt, prev)
	if err != nil {
		return event.Event{}, err
	}
	t.writes.events[evt.ProductID] = append(t.writes.events[evt.ProductID], sealed)
	t.writes.counts[evt.ProductID] = count + 1
	return sealed, nil
}

func (t *tx) Event(ctx context.Context, productID string, index uint64) (event.Event, bool, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, false, err
	}
	evt, ok := t.event(productID, index)
	return evt, ok, nil
}

func (t *tx) ListEvents(ctx context.Context, query storage.EventQuery) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count, _ := t.count(query.ProductID)
	start := uint64(0)
	if query.After != nil {
		start = *query.After + 1
	}
	var out []event.Event
	for index := start; index < count; index++ {
		evt, _ := t.event(query.ProductID, index)
		if !query.Filter.Match(evt) {
			continue
		}
		out = append(out, evt)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

func (t *tx) ListGrants(ctx context.Context, productID string) ([]identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := slices.Collect(maps.Keys(t.base.grants[productID]))
	if t.writes != nil {
		for key, granted := range t.writes.grants {
			if key.productID != productID {
				continue
			}
			_, committed := t.base.grants[productID][key.handler]
			switch {
			case granted && !committed:
				names = append(names, key.handler)
			case !granted && committed:
				names = slices.DeleteFunc(names, func(name string) bool { return name == key.handler })
			}
		}
	}
	slices.Sort(names)
	handlers := make([]identity.Identity, 0, len(names))
	for _, name := range names {
		handler, err := identity.New(name)
		if err != nil {
			return nil, fmt.Errorf("decode grant handler: %w", err)
		}
		handlers = append(handlers, handler)
	}
	return handlers, nil
}

func (t *tx) IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return t.granted(grantKey{productID: productID, handler: handler.String()}), nil
}

func (t *tx) PutGrant(ctx context.Context, productID string, handler identity.Identity) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	t.writes.grants[grantKey{productID: productID, handler: handler.String()}] = true
	return nil
}

func (t *tx) DeleteGrant(ctx context.Context, productID string, handler identity.Identity) error {
	if err := t.checkWrite(ctx); err != nil {
		return err
	}
	t.writes.grants[grantKey{productID: productID, handler: handler.String()}] = false
	return nil
}

func (t *tx) LedgerHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t.writes != nil {
		return t.writes.height, nil
	}
	return t.base.height, nil
}

func (t *tx) AdvanceLedgerHeight(ctx context.Context) (uint64, error) {
	if err := t.checkWrite(ctx); err != nil {
		return 0, err
	}
	t.writes.height++
	return t.writes.height, nil
}

var _ storage.Store = (*Store)(nil)

