package memory

import (
	"testing"

	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, err := NewStore(storagetest.Keyring(t))
		if err != nil {
			t.Fatalf("new store: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
