package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"image-browser/internal/logging"
)

// DefaultDebounce is the quiescence interval between the last mutation
// and the debounced disk flush.
const DefaultDebounce = 5 * time.Second

// ErrMissingID is returned when a record without an id reaches a write
// path. This is a programming error in the caller, never skipped.
var ErrMissingID = errors.New("metadata record has no id")

// Database is the in-memory mirror of the metadata store. All reads
// and writes during process lifetime go through it; the on-disk copy
// under the image root may lag by up to the debounce interval.
type Database struct {
	db       *sql.DB
	diskPath string

	// mu is the concurrency guard for all mirror access: shared for
	// reads, exclusive for writes and for the point-in-time snapshot
	// step of a flush.
	mu sync.RWMutex

	// dirtyMu protects the dirty flag independently of mu so a flush
	// can clear it without re-entering the guard.
	dirtyMu sync.Mutex
	dirty   bool

	saver *Debouncer

	// loadedRows is the row count imported from disk at startup.
	loadedRows int
}

// New opens the in-memory mirror, imports the on-disk snapshot when a
// structurally valid one exists at diskPath, and ensures the schema
// (tables, indexes, bookmarks backfill) is complete. A missing or
// rejected on-disk file leaves a fresh empty schema.
func New(diskPath string, debounce time.Duration) (*Database, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	// The mirror lives on a single connection: a second connection to
	// ":memory:" would open a second, empty database.
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA synchronous=OFF; PRAGMA journal_mode=MEMORY"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after pragma failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to configure in-memory database: %w", err)
	}

	d := &Database{
		db:       db,
		diskPath: diskPath,
		saver:    NewDebouncer(debounce),
	}

	loaded, err := d.loadFromDisk()
	if err != nil {
		// A broken on-disk file is never partially trusted; start fresh.
		logging.Warn("Failed to load metadata database from disk: %v", err)
	}

	if err := d.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if loaded {
		d.loadedRows = d.countMetadata()
		if d.loadedRows > 0 {
			logging.Info("Loaded %d metadata records from %s", d.loadedRows, diskPath)
		}
	}

	return d, nil
}

// schemaVersion is stamped into the mirror via PRAGMA user_version.
// Version 1 predates the bookmarks table.
const schemaVersion = 2

// migrate runs the single at-load migration step: snapshots carrying
// an older version get the current schema backfilled and are stamped.
func (d *Database) migrate() error {
	var version int
	if err := d.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("on-disk schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if err := d.createSchema(); err != nil {
		return err
	}
	if version < schemaVersion {
		if version > 0 {
			logging.Info("Migrated metadata schema from version %d to %d", version, schemaVersion)
		}
		if _, err := d.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
	}
	return nil
}

// createSchema idempotently ensures both tables and all indexes exist.
// Safe to call after a successful disk load: older snapshots may
// predate the bookmarks table or some indexes, and this backfills them.
func (d *Database) createSchema() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS metadata (
		id TEXT PRIMARY KEY,
		prompt TEXT NOT NULL DEFAULT '',
		checked INTEGER NOT NULL DEFAULT 0,
		rating INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]',
		size INTEGER NOT NULL DEFAULT 0,
		hash TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL UNIQUE,
		thumbnail BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_metadata_image_path ON metadata(image_path);
	CREATE INDEX IF NOT EXISTS idx_metadata_checked ON metadata(checked);
	CREATE INDEX IF NOT EXISTS idx_metadata_rating ON metadata(rating);
	CREATE INDEX IF NOT EXISTS idx_metadata_hash ON metadata(hash);
	CREATE INDEX IF NOT EXISTS idx_metadata_created_at ON metadata(created_at);
	CREATE INDEX IF NOT EXISTS idx_metadata_updated_at ON metadata(updated_at);
	CREATE INDEX IF NOT EXISTS idx_metadata_checked_rating ON metadata(checked, rating);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		metadata_id TEXT NOT NULL,
		image_path TEXT NOT NULL DEFAULT '',
		folder_path TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		sort_by TEXT NOT NULL DEFAULT '',
		search_query TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_metadata_id ON bookmarks(metadata_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close cancels any pending debounced flush and closes the mirror.
// It does not flush; callers that need durability call ForceSave first.
func (d *Database) Close() error {
	d.saver.Cancel()
	return d.db.Close()
}

// LoadedRows returns the number of rows imported from disk at startup.
func (d *Database) LoadedRows() int {
	return d.loadedRows
}

// Dirty reports whether in-memory state has mutations not yet flushed.
func (d *Database) Dirty() bool {
	d.dirtyMu.Lock()
	defer d.dirtyMu.Unlock()
	return d.dirty
}

func (d *Database) setDirty(v bool) {
	d.dirtyMu.Lock()
	d.dirty = v
	d.dirtyMu.Unlock()
}

// markDirty records a mutation and either re-arms the debounced flush
// or, when force is set, flushes synchronously before returning.
// Forced flush errors surface to the caller; debounced flush errors
// are logged on the timer goroutine, and the store stays dirty so a
// later flush retries.
func (d *Database) markDirty(force bool) error {
	d.setDirty(true)

	if force {
		return d.ForceSave()
	}

	d.saver.Schedule(func() {
		if err := d.saveToDisk("debounce"); err != nil {
			logging.Error("Debounced save failed: %v", err)
		}
	})
	return nil
}

// ForceSave cancels any pending debounced flush and snapshots to disk
// immediately and synchronously.
func (d *Database) ForceSave() error {
	d.saver.Cancel()
	return d.saveToDisk("forced")
}

// countMetadata returns the current metadata row count, 0 on error.
// Caller must not hold the guard.
func (d *Database) countMetadata() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.countMetadataUnlocked()
}

func (d *Database) countMetadataUnlocked() int {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM metadata").Scan(&count); err != nil {
		logging.Warn("Failed to count metadata rows: %v", err)
		return 0
	}
	return count
}
