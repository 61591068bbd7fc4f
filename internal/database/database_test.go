package database

import (
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates an engine backed by a temp durable file with a
// short debounce interval suitable for tests.
func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()

	diskPath := filepath.Join(t.TempDir(), ".metadata", "metadata.db")
	db, err := New(diskPath, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db, diskPath
}

func testRecord(id, path string) *Metadata {
	return &Metadata{
		ID:        id,
		ImagePath: path,
		Prompt:    "a prompt for " + path,
		Tags:      []string{"landscape", "512x512"},
		Size:      1024,
		Hash:      "d41d8cd98f00b204e9800998ecf8427e",
	}
}

func TestNewCreatesEmptySchema(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	all, err := db.SelectAll()
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty store, got %d records", len(all))
	}
	if db.LoadedRows() != 0 {
		t.Errorf("expected 0 loaded rows, got %d", db.LoadedRows())
	}
	if db.Dirty() {
		t.Error("fresh store should not be dirty")
	}
}

func TestCreateSchemaIdempotent(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.createSchema(); err != nil {
			t.Fatalf("createSchema run %d failed: %v", i+1, err)
		}
	}
}

func TestMigrateStampsSchemaVersion(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	var version int
	if err := db.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to read user_version: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("user_version = %d, want %d", version, schemaVersion)
	}
}

func TestMigrateRejectsNewerVersion(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if _, err := db.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	if err := db.migrate(); err == nil {
		t.Error("migrate should reject a newer on-disk schema version")
	}
}

func TestDirtyFlagLifecycle(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if err := db.Upsert([]*Metadata{testRecord("id-1", "a.png")}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !db.Dirty() {
		t.Error("store should be dirty after a debounced mutation")
	}

	if err := db.ForceSave(); err != nil {
		t.Fatalf("ForceSave failed: %v", err)
	}
	if db.Dirty() {
		t.Error("store should be clean after a successful forced save")
	}
}

func TestUpsertMissingIDFailsBatch(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	records := []*Metadata{
		testRecord("id-1", "a.png"),
		{ImagePath: "b.png"}, // no id
	}
	if err := db.Upsert(records, false); err == nil {
		t.Fatal("expected error for record without id")
	}

	// The valid record must not have been applied either.
	all, err := db.SelectAll()
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no records after rejected batch, got %d", len(all))
	}
}
