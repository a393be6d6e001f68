package host

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/memory"
)

var (
	m = identity.MustNew("M")
	h = identity.MustNew("H")
	x = identity.MustNew("X")
)

func newTestHost(t *testing.T, opts ...Option) *Host {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	store, err := memory.NewStore(ring)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	host, err := New(store, opts...)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	return host
}

func register(t *testing.T, host *Host, id string) {
	t.Helper()
	if _, err := host.RegisterProduct(context.Background(), m, ledger.RegisterInput{ID: id, Name: "Widget", Origin: "Factory-A"}); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestHeightAdvancesOnlyOnCommittedCalls(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()

	register(t, host, "PROD-001")
	if _, err := host.RecordEvent(ctx, x, ledger.RecordEventInput{ProductID: "PROD-001", Type: "inspection", Location: "Warehouse-1"}); err == nil {
		t.Fatal("expected unauthorized record")
	}
	index, err := host.RecordEvent(ctx, m, ledger.RecordEventInput{ProductID: "PROD-001", Type: "inspection", Location: "Warehouse-1"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if index != 0 {
		t.Fatalf("index = %d, want 0", index)
	}

	height, err := host.LedgerHeight(ctx)
	if err != nil {
		t.Fatalf("height: %v", err)
	}
	if height != 2 {
		t.Fatalf("height = %d, want 2", height)
	}
	evt, ok, err := host.GetEvent(ctx, "PROD-001", 0)
	if err != nil || !ok {
		t.Fatalf("get event: ok=%v err=%v", ok, err)
	}
	if evt.Timestamp != 2 {
		t.Fatalf("timestamp = %d, want 2", evt.Timestamp)
	}
	p, _, _ := host.GetProduct(ctx, "PROD-001")
	if p.CreatedAt != 1 {
		t.Fatalf("created at = %d, want 1", p.CreatedAt)
	}
}

func TestReadsDoNotAdvanceHeight(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()
	register(t, host, "PROD-001")

	_, _, _ = host.GetProduct(ctx, "PROD-001")
	_, _, _ = host.GetEventCount(ctx, "PROD-001")
	_, _ = host.TotalProducts(ctx)
	_, _ = host.IsAuthorized(ctx, "PROD-001", x)

	height, err := host.LedgerHeight(ctx)
	if err != nil {
		t.Fatalf("height: %v", err)
	}
	if height != 1 {
		t.Fatalf("height = %d, want 1", height)
	}
}

func TestHandlerLifecycle(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()
	register(t, host, "PROD-001")

	if ok, err := host.AuthorizeHandler(ctx, m, "PROD-001", x); err != nil || !ok {
		t.Fatalf("authorize: ok=%v err=%v", ok, err)
	}
	if ok, _ := host.IsAuthorized(ctx, "PROD-001", x); !ok {
		t.Fatal("expected X to be authorized")
	}
	if ok, err := host.RevokeHandler(ctx, m, "PROD-001", x); err != nil || !ok {
		t.Fatalf("revoke: ok=%v err=%v", ok, err)
	}
	if ok, _ := host.IsAuthorized(ctx, "PROD-001", x); ok {
		t.Fatal("expected X to be revoked")
	}
}

func TestTransferAndStatus(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()
	register(t, host, "PROD-001")

	holder, err := host.TransferCustody(ctx, m, "PROD-001", h, "Dock-3")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !holder.Equal(h) {
		t.Fatalf("holder = %s, want H", holder)
	}
	status, err := host.UpdateStatus(ctx, h, "PROD-001", "delivered")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if status.Label != "delivered" {
		t.Fatalf("status = %s, want delivered", status.Label)
	}
	count, ok, err := host.GetEventCount(ctx, "PROD-001")
	if err != nil || !ok || count != 2 {
		t.Fatalf("count = %d ok=%v err=%v, want 2", count, ok, err)
	}
}

func TestRejectedCallsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	host := newTestHost(t, WithLogger(zap.New(core)))
	ctx := context.Background()
	register(t, host, "PROD-001")

	_, err := host.TransferCustody(ctx, x, "PROD-001", x, "")
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	entries := logs.FilterMessage("ledger call rejected").All()
	if len(entries) != 1 {
		t.Fatalf("rejected log entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["code"]; got != "UNAUTHORIZED" {
		t.Fatalf("code field = %v, want UNAUTHORIZED", got)
	}
}

func TestListEventsPaging(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()
	register(t, host, "PROD-001")
	for range 5 {
		if _, err := host.RecordEvent(ctx, m, ledger.RecordEventInput{ProductID: "PROD-001", Type: "inspection", Location: "Warehouse-1"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if _, err := host.TransferCustody(ctx, m, "PROD-001", h, ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	req := ListEventsRequest{ProductID: "PROD-001", Filter: `type = "inspection"`, PageSize: 2}
	var indexes []uint64
	for range 10 {
		page, err := host.ListEvents(ctx, req)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, evt := range page.Events {
			indexes = append(indexes, evt.Index)
		}
		if page.NextPageToken == "" {
			break
		}
		req.PageToken = page.NextPageToken
	}
	if len(indexes) != 5 || indexes[0] != 0 || indexes[4] != 4 {
		t.Fatalf("indexes = %v, want 0..4", indexes)
	}

	_, err := host.ListEvents(ctx, ListEventsRequest{ProductID: "PROD-001", Filter: `kind = "custody-transfer"`, PageToken: req.PageToken})
	if !apperrors.HasCode(err, apperrors.CodeInvalidPageToken) {
		t.Fatalf("err = %v, want INVALID_PAGE_TOKEN", err)
	}
	_, err = host.ListEvents(ctx, ListEventsRequest{ProductID: "PROD-404"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	_, err = host.ListEvents(ctx, ListEventsRequest{ProductID: "PROD-001", Filter: "bogus ="})
	if !apperrors.HasCode(err, apperrors.CodeInvalidFilter) {
		t.Fatalf("err = %v, want INVALID_FILTER", err)
	}
}

func TestListProductsPaging(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()
	for _, id := range []string{"PROD-003", "PROD-001", "PROD-002"} {
		register(t, host, id)
	}
	if _, err := host.TransferCustody(ctx, m, "PROD-002", h, ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	page, err := host.ListProducts(ctx, ListProductsRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Products) != 2 || page.NextPageToken == "" {
		t.Fatalf("page = %+v", page)
	}
	next, err := host.ListProducts(ctx, ListProductsRequest{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list next: %v", err)
	}
	if len(next.Products) != 1 || next.Products[0].ID != "PROD-003" || next.NextPageToken != "" {
		t.Fatalf("next = %+v", next)
	}

	held, err := host.ListProducts(ctx, ListProductsRequest{Holder: h})
	if err != nil {
		t.Fatalf("list held: %v", err)
	}
	if len(held.Products) != 1 || held.Products[0].ID != "PROD-002" {
		t.Fatalf("held = %+v", held)
	}
}

func TestStateDigestIsDeterministic(t *testing.T) {
	run := func() string {
		host := newTestHost(t)
		ctx := context.Background()
		register(t, host, "PROD-001")
		if _, err := host.AuthorizeHandler(ctx, m, "PROD-001", x); err != nil {
			t.Fatalf("authorize: %v", err)
		}
		if _, err := host.RecordEvent(ctx, x, ledger.RecordEventInput{ProductID: "PROD-001", Type: "inspection", Location: "Warehouse-1", Notes: "ok"}); err != nil {
			t.Fatalf("record: %v", err)
		}
		if _, err := host.TransferCustody(ctx, m, "PROD-001", h, ""); err != nil {
			t.Fatalf("transfer: %v", err)
		}
		digest, err := host.StateDigest(ctx)
		if err != nil {
			t.Fatalf("digest: %v", err)
		}
		return digest
	}
	first, second := run(), run()
	if first != second {
		t.Fatalf("digests differ: %s vs %s", first, second)
	}
}

func TestStateDigestCoversGrants(t *testing.T) {
	ctx := context.Background()
	digest := func(host *Host) string {
		t.Helper()
		d, err := host.StateDigest(ctx)
		if err != nil {
			t.Fatalf("digest: %v", err)
		}
		return d
	}

	granted := newTestHost(t)
	register(t, granted, "PROD-001")
	if _, err := granted.AuthorizeHandler(ctx, m, "PROD-001", x); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	revoked := newTestHost(t)
	register(t, revoked, "PROD-001")
	if _, err := revoked.RevokeHandler(ctx, m, "PROD-001", x); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if digest(granted) == digest(revoked) {
		t.Fatal("digests match although only one host granted x")
	}

	again := newTestHost(t)
	register(t, again, "PROD-001")
	if _, err := again.AuthorizeHandler(ctx, m, "PROD-001", x); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if got, want := digest(again), digest(granted); got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestVerifyIntegrity(t *testing.T) {
	host := newTestHost(t)
	ctx := context.Background()
	register(t, host, "PROD-001")
	if _, err := host.TransferCustody(ctx, m, "PROD-001", h, ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	report, err := host.VerifyIntegrity(ctx, "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.Products != 1 || report.Events != 1 {
		t.Fatalf("report = %+v", report)
	}
	if _, err := host.VerifyIntegrity(ctx, "PROD-404"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
