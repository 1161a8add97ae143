package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var header = []string{"Title", "Link"}

func TestNewConnectionRequiresPath(t *testing.T) {
	if _, err := NewConnection(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	status, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected no error on second migration run, got: %v", err)
	}
	if status.From != 1 || status.To != 1 || status.Changed() {
		t.Errorf("Expected unchanged version 1, got %+v", status)
	}
}

func TestRunMigrationsFromEmptyDatabase(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	status, err := RunMigrations(&DB{DB: sqlDB})
	if err != nil {
		t.Fatalf("Expected migrations to apply, got: %v", err)
	}
	if status.From != 0 || status.To != 1 || !status.Changed() {
		t.Errorf("Expected migration from 0 to 1, got %+v", status)
	}
}

func TestRunMigrationsRejectsDirtySchema(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Exec(`UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatal(err)
	}

	if _, err := RunMigrations(db); err == nil {
		t.Error("Expected error for dirty schema")
	}
}

func TestSheetRepositoryReplaceAndRows(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()

	err := repo.Replace(ctx, "News", header, [][]string{
		{"First", "https://example.com/1"},
		{"Second", "https://example.com/2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := repo.Rows(ctx, "News")
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Title" || rows[1][0] != "First" || rows[2][1] != "https://example.com/2" {
		t.Errorf("Unexpected table contents: %v", rows)
	}

	count, updatedAt, err := repo.Stats(ctx, "News")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 data rows, got %d", count)
	}
	if updatedAt == nil {
		t.Error("Expected updated timestamp")
	}
}

func TestSheetRepositoryReplaceDiscardsPreviousRows(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Replace(ctx, "News", header, [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Replace(ctx, "News", header, [][]string{{"d", "4"}}); err != nil {
		t.Fatal(err)
	}

	rows, err := repo.Rows(ctx, "News")
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d rows", len(rows))
	}
	if rows[1][0] != "d" {
		t.Errorf("Expected only second run rows, got %v", rows)
	}
}

func TestSheetRepositoryTabsAreIndependent(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Replace(ctx, "A", header, [][]string{{"a", "1"}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Replace(ctx, "B", header, nil); err != nil {
		t.Fatal(err)
	}

	rowsA, _ := repo.Rows(ctx, "A")
	rowsB, _ := repo.Rows(ctx, "B")

	if len(rowsA) != 2 {
		t.Errorf("Expected tab A untouched, got %d rows", len(rowsA))
	}
	if len(rowsB) != 1 {
		t.Errorf("Expected tab B to hold only the header, got %d rows", len(rowsB))
	}
}

func TestSheetRepositoryFailedReplaceKeepsPreviousRows(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Replace(ctx, "News", header, [][]string{{"kept", "1"}}); err != nil {
		t.Fatal(err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	if err := repo.Replace(cancelled, "News", header, [][]string{{"lost", "2"}}); err == nil {
		t.Fatal("Expected error for cancelled context")
	}

	rows, err := repo.Rows(ctx, "News")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "kept" {
		t.Errorf("Expected previous contents after failed replace, got %v", rows)
	}
}

func TestSheetRepositoryUnknownTab(t *testing.T) {
	repo := NewSheetRepository(newTestDB(t))

	rows, err := repo.Rows(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}

	count, updatedAt, err := repo.Stats(context.Background(), "missing")
	if err != nil || count != 0 || updatedAt != nil {
		t.Errorf("Expected zero stats, got %d %v %v", count, updatedAt, err)
	}
}
