// Package sqlite provides the SQLite-backed ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sqlitemigrate "github.com/louisbranch/waybill/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/waybill/internal/services/ledger/storage"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists ledger state in SQLite.
type Store struct {
	sqlDB   *sql.DB
	keyring *integrity.Keyring
	// writeMu keeps a single writer so deferred transactions never race to
	// upgrade their locks.
	writeMu sync.Mutex
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(ctx context.Context, path string, keyring *integrity.Keyring) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("event keyring is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, keyring: keyring}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Update runs fn inside a write transaction, committing only if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{sqlTx: sqlTx, writable: true, keyring: s.keyring}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// View runs fn inside a transaction that refuses writes and is always
// rolled back.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()
	return fn(&tx{sqlTx: sqlTx, keyring: s.keyring})
}

// VerifyIntegrity walks stored chains and checks every link and signature.
func (s *Store) VerifyIntegrity(ctx context.Context, productID string) (storage.IntegrityReport, error) {
	var report storage.IntegrityReport
	err := s.View(ctx, func(t storage.Tx) error {
		inner := t.(*tx)
		ids, err := inner.productIDs(ctx, productID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			verified, err := inner.verifyProduct(ctx, s.keyring, id)
			if err != nil {
				return err
			}
			report.Products++
			report.Events += verified
		}
		return nil
	})
	return report, err
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
