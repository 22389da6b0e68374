package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

func TestOpenSQLite_CreatesFileAndAppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecard.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	var mode string
	if err := db.Raw("PRAGMA journal_mode;").Scan(&mode).Error; err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q; want wal", mode)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does", "not", "exist", "x.db")
	if _, err := OpenSQLite(path); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestAutoMigrate_CreatesAllTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// every persisted model is queryable after migration
	if _, err := ListFields(context.Background(), db); err != nil {
		t.Fatalf("fields table: %v", err)
	}
	if _, err := ListCategories(context.Background(), db); err != nil {
		t.Fatalf("categories table: %v", err)
	}
	if _, err := GetSettings(context.Background(), db); err != nil {
		t.Fatalf("settings table: %v", err)
	}
	if _, err := GetDraft(context.Background(), db, "u1"); err != nil {
		t.Fatalf("score_drafts table: %v", err)
	}
	var count int64
	if err := db.Model(&domain.Idempotency{}).Count(&count).Error; err != nil {
		t.Fatalf("idempotency table: %v", err)
	}
}
