package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/product"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/storagetest"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(context.Background(), path, storagetest.Keyring(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	})
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(context.Background(), " ", storagetest.Keyring(t)); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.db"), nil); err == nil {
		t.Fatal("expected error for missing keyring")
	}
}

func TestDuplicateProductIsAlreadyExists(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	storagetest.SeedProduct(t, store, "PROD-001", 0)

	ctx := context.Background()
	err := store.Update(ctx, func(tx storage.Tx) error {
		p, _, err := tx.Product(ctx, "PROD-001")
		if err != nil {
			return err
		}
		return tx.CreateProduct(ctx, p)
	})
	if !apperrors.HasCode(err, apperrors.CodeAlreadyExists) {
		t.Fatalf("err = %v, want ALREADY_EXISTS", err)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	first, err := Open(ctx, path, storagetest.Keyring(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	storagetest.SeedProduct(t, first, "PROD-001", 2)
	if err := first.Update(ctx, func(tx storage.Tx) error {
		_, err := tx.AdvanceLedgerHeight(ctx)
		return err
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := openTestStore(t, path)
	err = second.View(ctx, func(tx storage.Tx) error {
		p, ok, err := tx.Product(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if !ok || p.Status.Kind != product.StatusRegistered {
			t.Fatalf("product = %+v ok=%v", p, ok)
		}
		count, _, err := tx.EventCount(ctx, "PROD-001")
		if err != nil {
			return err
		}
		if count != 2 {
			t.Fatalf("count = %d, want 2", count)
		}
		height, err := tx.LedgerHeight(ctx)
		if err != nil {
			return err
		}
		if height != 1 {
			t.Fatalf("height = %d, want 1", height)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if _, err := second.VerifyIntegrity(ctx, "PROD-001"); err != nil {
		t.Fatalf("verify after reopen: %v", err)
	}
}

func TestVerifyIntegrityDetectsRowTampering(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	storagetest.SeedProduct(t, store, "PROD-001", 3)

	if _, err := store.sqlDB.Exec(`UPDATE events SET notes = 'forged' WHERE product_id = 'PROD-001' AND event_index = 1`); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	_, err := store.VerifyIntegrity(context.Background(), "PROD-001")
	if !apperrors.HasCode(err, apperrors.CodeIntegrityViolation) {
		t.Fatalf("err = %v, want INTEGRITY_VIOLATION", err)
	}
}

func TestVerifyIntegrityDetectsDeletedTail(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "ledger.db"))
	storagetest.SeedProduct(t, store, "PROD-001", 3)

	if _, err := store.sqlDB.Exec(`DELETE FROM events WHERE product_id = 'PROD-001' AND event_index = 2`); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	_, err := store.VerifyIntegrity(context.Background(), "PROD-001")
	if !apperrors.HasCode(err, apperrors.CodeIntegrityViolation) {
		t.Fatalf("err = %v, want INTEGRITY_VIOLATION", err)
	}
}
