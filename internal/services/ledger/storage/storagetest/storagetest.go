// Package storagetest holds behaviour checks shared by every storage.Store
// implementation.
package storagetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/core/filter"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
)

// Keyring returns the keyring used by the shared checks.
func Keyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("storagetest-secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return ring
}

// Run exercises newStore against the storage contract. Each subtest gets a
// fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("create and read product", func(t *testing.T) { testCreateProduct(t, newStore(t)) })
	t.Run("duplicate product", func(t *testing.T) { testDuplicateProduct(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("events and grants", func(t *testing.T) { testEventsAndGrants(t, newStore(t)) })
	t.Run("list grants", func(t *testing.T) { testListGrants(t, newStore(t)) })
	t.Run("history is immutable", func(t *testing.T) { testHistoryImmutable(t, newStore(t)) })
	t.Run("list events", func(t *testing.T) { testListEvents(t, newStore(t)) })
	t.Run("list products", func(t *testing.T) { testListProducts(t, newStore(t)) })
	t.Run("ledger height", func(t *testing.T) { testLedgerHeight(t, newStore(t)) })
	t.Run("verify integrity", func(t *testing.T) { testVerifyIntegrity(t, newStore(t)) })
}

var (
	manufacturer = identity.MustNew("M")
	holder       = identity.MustNew("H")
)

// SeedProduct commits a product held by M with n inspection events.
func SeedProduct(t *testing.T, store storage.Store, id string, n int) {
	t.Helper()
	ctx := context.Background()
	err := store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.CreateProduct(ctx, product.Product{
			ID: id, Name: "Widget", Manufacturer: manufacturer, Origin: "Factory-A",
			CreatedAt: 1, Status: product.InitialStatus, Holder: manufacturer, Batch: "B-7",
		}); err != nil {
			return err
		}
		for i := range n {
			if _, err := tx.AppendEvent(ctx, event.Event{
				ProductID: id,
				Index:     uint64(i),
				Type:      event.TypeOf(event.KindInspection),
				Location:  "Warehouse-1",
				Timestamp: uint64(i + 2),
				Handler:   manufacturer,
				Notes:     "ok",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func view(t *testing.T, store storage.Store, fn func(context.Context, storage.Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := store.View(ctx, func(tx storage.Tx) error { return fn(ctx, tx) }); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func testCreateProduct(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 0)
	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		p, ok, err := tx.Product(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if !ok {
			t.Fatal("expected product")
		}
		if p.Name != "Widget" || p.Origin != "Factory-A" || p.Batch != "B-7" || p.CreatedAt != 1 {
			t.Fatalf("product = %+v", p)
		}
		if !p.Manufacturer.Equal(manufacturer) || !p.Holder.Equal(manufacturer) {
			t.Fatalf("roles = %s/%s", p.Manufacturer, p.Holder)
		}
		if p.Status.Kind != product.StatusRegistered {
			t.Fatalf("status = %+v", p.Status)
		}
		count, ok, err := tx.EventCount(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if !ok || count != 0 {
			t.Fatalf("count = %d ok=%v, want 0 true", count, ok)
		}
		total, err := tx.TotalProducts(ctx)
		if err != nil {
			return err
		}
		if total != 1 {
			t.Fatalf("total = %d, want 1", total)
		}
		if _, ok, err := tx.Product(ctx, "PROD-404"); ok || err != nil {
			t.Fatalf("missing product: ok=%v err=%v", ok, err)
		}
		return nil
	})
}

func testDuplicateProduct(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 0)
	ctx := context.Background()
	err := store.Update(ctx, func(tx storage.Tx) error {
		return tx.CreateProduct(ctx, product.Product{ID: "PROD-001", Manufacturer: holder, Holder: holder})
	})
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		total, err := tx.TotalProducts(ctx)
		if err != nil {
			return err
		}
		if total != 1 {
			t.Fatalf("total = %d, want 1", total)
		}
		return nil
	})
}

func testRollback(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 1)
	ctx := context.Background()
	abort := errors.New("abort")
	err := store.Update(ctx, func(tx storage.Tx) error {
		if _, err := tx.AppendEvent(ctx, event.Event{
			ProductID: "PROD-001", Index: 1, Type: event.TypeOf(event.KindShipment), Handler: manufacturer,
		}); err != nil {
			return err
		}
		if err := tx.PutGrant(ctx, "PROD-001", holder); err != nil {
			return err
		}
		if _, err := tx.AdvanceLedgerHeight(ctx); err != nil {
			return err
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("err = %v, want abort", err)
	}
	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		count, _, err := tx.EventCount(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if count != 1 {
			t.Fatalf("count = %d, want 1", count)
		}
		if ok, _ := tx.IsAuthorized(ctx, "PROD-001", holder); ok {
			t.Fatal("grant survived rollback")
		}
		height, err := tx.LedgerHeight(ctx)
		if err != nil {
			return err
		}
		if height != 0 {
			t.Fatalf("height = %d, want 0", height)
		}
		return nil
	})
}

func testEventsAndGrants(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 2)
	ctx := context.Background()
	if err := store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.PutGrant(ctx, "PROD-001", holder); err != nil {
			return err
		}
		return tx.PutGrant(ctx, "PROD-001", holder)
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		evt, ok, err := tx.Event(ctx, "PROD-001", 1)
		if err != nil {
			return err
		}
		if !ok || evt.Index != 1 || evt.Timestamp != 3 || evt.Type.Kind != event.KindInspection {
			t.Fatalf("event = %+v ok=%v", evt, ok)
		}
		first, _, err := tx.Event(ctx, "PROD-001", 0)
		if err != nil {
			return err
		}
		if evt.PrevHash != first.ChainHash || evt.SignatureKeyID != "v1" {
			t.Fatalf("event not chained: %+v", evt)
		}
		if _, ok, err := tx.Event(ctx, "PROD-001", 2); ok || err != nil {
			t.Fatalf("missing event: ok=%v err=%v", ok, err)
		}
		granted, err := tx.IsAuthorized(ctx, "PROD-001", holder)
		if err != nil {
			return err
		}
		if !granted {
			t.Fatal("expected grant")
		}
		return nil
	})

	if err := store.Update(ctx, func(tx storage.Tx) error {
		return tx.DeleteGrant(ctx, "PROD-001", holder)
	}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		granted, err := tx.IsAuthorized(ctx, "PROD-001", holder)
		if err != nil {
			return err
		}
		if granted {
			t.Fatal("expected grant to be removed")
		}
		return nil
	})

	err := store.View(ctx, func(tx storage.Tx) error {
		return tx.PutGrant(ctx, "PROD-001", holder)
	})
	if !errors.Is(err, storage.ErrReadOnly) {
		t.Fatalf("err = %v, want ErrReadOnly", err)
	}
}

func testListEvents(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 6)
	ctx := context.Background()
	if err := store.Update(ctx, func(tx storage.Tx) error {
		_, err := tx.AppendEvent(ctx, event.Event{
			ProductID: "PROD-001", Index: 6, Type: event.TypeOf(event.KindShipment),
			Location: "Dock-3", Timestamp: 20, Handler: holder,
		})
		return err
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := filter.ParseEventFilter(`type = "inspection" AND index >= 2`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		page, err := tx.ListEvents(ctx, storage.EventQuery{ProductID: "PROD-001", Filter: f, Limit: 2})
		if err != nil {
			return err
		}
		if len(page) != 2 || page[0].Index != 2 || page[1].Index != 3 {
			t.Fatalf("page = %+v", page)
		}
		after := page[1].Index
		rest, err := tx.ListEvents(ctx, storage.EventQuery{ProductID: "PROD-001", Filter: f, After: &after})
		if err != nil {
			return err
		}
		if len(rest) != 2 || rest[0].Index != 4 || rest[1].Index != 5 {
			t.Fatalf("rest = %+v", rest)
		}

		byHandler, err := filter.ParseEventFilter(`handler = "H"`)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		shipped, err := tx.ListEvents(ctx, storage.EventQuery{ProductID: "PROD-001", Filter: byHandler})
		if err != nil {
			return err
		}
		if len(shipped) != 1 || shipped[0].Location != "Dock-3" {
			t.Fatalf("shipped = %+v", shipped)
		}
		return nil
	})
}

func testListProducts(t *testing.T, store storage.Store) {
	for _, id := range []string{"PROD-003", "PROD-001", "PROD-002"} {
		SeedProduct(t, store, id, 0)
	}
	ctx := context.Background()
	if err := store.Update(ctx, func(tx storage.Tx) error {
		p, _, err := tx.Product(ctx, "PROD-002")
		if err != nil {
			return err
		}
		p.Holder = holder
		p.Status = product.TransitStatus
		return tx.UpdateProduct(ctx, p)
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		first, err := tx.ListProducts(ctx, storage.ProductQuery{Limit: 2})
		if err != nil {
			return err
		}
		if len(first) != 2 || first[0].ID != "PROD-001" || first[1].ID != "PROD-002" {
			t.Fatalf("first page = %+v", first)
		}
		next, err := tx.ListProducts(ctx, storage.ProductQuery{AfterID: first[1].ID, Limit: 2})
		if err != nil {
			return err
		}
		if len(next) != 1 || next[0].ID != "PROD-003" {
			t.Fatalf("next page = %+v", next)
		}
		held, err := tx.ListProducts(ctx, storage.ProductQuery{Holder: holder})
		if err != nil {
			return err
		}
		if len(held) != 1 || held[0].ID != "PROD-002" || held[0].Status.Kind != product.StatusInTransit {
			t.Fatalf("held = %+v", held)
		}
		return nil
	})
}

func testLedgerHeight(t *testing.T, store storage.Store) {
	ctx := context.Background()
	for want := uint64(1); want <= 3; want++ {
		var got uint64
		if err := store.Update(ctx, func(tx storage.Tx) error {
			var err error
			got, err = tx.AdvanceLedgerHeight(ctx)
			return err
		}); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if got != want {
			t.Fatalf("height = %d, want %d", got, want)
		}
	}
	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		height, err := tx.LedgerHeight(ctx)
		if err != nil {
			return err
		}
		if height != 3 {
			t.Fatalf("height = %d, want 3", height)
		}
		return nil
	})
}

func testVerifyIntegrity(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 3)
	SeedProduct(t, store, "PROD-002", 0)
	ctx := context.Background()

	report, err := store.VerifyIntegrity(ctx, "")
	if err != nil {
		t.Fatalf("verify all: %v", err)
	}
	if report.Products != 2 || report.Events != 3 {
		t.Fatalf("report = %+v", report)
	}
	report, err = store.VerifyIntegrity(ctx, "PROD-001")
	if err != nil {
		t.Fatalf("verify one: %v", err)
	}
	if report.Products != 1 || report.Events != 3 {
		t.Fatalf("report = %+v", report)
	}
	if _, err := store.VerifyIntegrity(ctx, "PROD-404"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func testListGrants(t *testing.T, store storage.Store) {
	SeedProduct(t, store, "PROD-001", 0)
	SeedProduct(t, store, "PROD-002", 0)
	ctx := context.Background()
	inspector := identity.MustNew("inspector")
	carrier := identity.MustNew("carrier")

	if err := store.Update(ctx, func(tx storage.Tx) error {
		for _, h := range []identity.Identity{inspector, holder, carrier} {
			if err := tx.PutGrant(ctx, "PROD-001", h); err != nil {
				return err
			}
		}
		if err := tx.PutGrant(ctx, "PROD-002", inspector); err != nil {
			return err
		}
		if err := tx.DeleteGrant(ctx, "PROD-001", carrier); err != nil {
			return err
		}
		grants, err := tx.ListGrants(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if got := handlerNames(grants); !reflect.DeepEqual(got, []string{"H", "inspector"}) {
			t.Fatalf("staged grants = %v, want [H inspector]", got)
		}
		return nil
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := store.Update(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteGrant(ctx, "PROD-001", holder); err != nil {
			return err
		}
		return tx.PutGrant(ctx, "PROD-001", carrier)
	}); err != nil {
		t.Fatalf("regrant: %v", err)
	}

	view(t, store, func(ctx context.Context, tx storage.Tx) error {
		grants, err := tx.ListGrants(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if got := handlerNames(grants); !reflect.DeepEqual(got, []string{"carrier", "inspector"}) {
			t.Fatalf("grants = %v, want [carrier inspector]", got)
		}
		other, err := tx.ListGrants(ctx, "PROD-002")
		if err != nil {
			return err
		}
		if got := handlerNames(other); !reflect.DeepEqual(got, []string{"inspector"}) {
			t.Fatalf("PROD-002 grants = %v, want [inspector]", got)
		}
		none, err := tx.ListGrants(ctx, "PROD-404")
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Fatalf("PROD-404 grants = %v, want none", none)
		}
		return nil
	})
}

func handlerNames(handlers []identity.Identity) []string {
	names := make([]string, 0, len(handlers))
	for _, h := range handlers {
		names = append(names, h.String())
	}
	return names
}

// testHistoryImmutable drives the ledger operations through the store and
// checks the first event is byte-for-byte the same afterwards.
func testHistoryImmutable(t *testing.T, store storage.Store) {
	ctx := context.Background()
	var height uint64
	exec := func(caller identity.Identity, fn func(context.Context, ledger.State, ledger.Call) error) {
		t.Helper()
		err := store.Update(ctx, func(tx storage.Tx) error {
			var err error
			if height, err = tx.AdvanceLedgerHeight(ctx); err != nil {
				return err
			}
			return fn(ctx, tx, ledger.Call{Caller: caller, Height: height})
		})
		if err != nil {
			t.Fatalf("call at height %d: %v", height, err)
		}
	}
	record := func(caller identity.Identity) {
		t.Helper()
		exec(caller, func(ctx context.Context, st ledger.State, call ledger.Call) error {
			_, err := ledger.RecordEvent(ctx, st, call, ledger.RecordEventInput{
				ProductID: "PROD-001", Type: "inspection", Location: "Warehouse-1", Notes: "seal intact",
			})
			return err
		})
	}
	firstEvent := func() event.Event {
		t.Helper()
		var evt event.Event
		view(t, store, func(ctx context.Context, tx storage.Tx) error {
			e, ok, err := ledger.GetEvent(ctx, tx, "PROD-001", 0)
			if err != nil {
				return err
			}
			if !ok {
				t.Fatal("event 0 missing")
			}
			evt = e
			return nil
		})
		return evt
	}

	exec(manufacturer, func(ctx context.Context, st ledger.State, call ledger.Call) error {
		_, err := ledger.Register(ctx, st, call, ledger.RegisterInput{ID: "PROD-001", Name: "Widget", Origin: "Factory-A"})
		return err
	})
	record(manufacturer)
	before := firstEvent()

	record(manufacturer)
	exec(manufacturer, func(ctx context.Context, st ledger.State, call ledger.Call) error {
		_, err := ledger.UpdateStatus(ctx, st, call, "PROD-001", "stored")
		return err
	})
	exec(manufacturer, func(ctx context.Context, st ledger.State, call ledger.Call) error {
		_, err := ledger.TransferCustody(ctx, st, call, "PROD-001", holder, "Dock-3")
		return err
	})
	record(holder)

	after := firstEvent()
	if !reflect.DeepEqual(after, before) {
		t.Fatalf("event 0 = %+v, want %+v", after, before)
	}
	if _, err := store.VerifyIntegrity(ctx, "PROD-001"); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
