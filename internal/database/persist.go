package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"
)

const (
	// saveRetries is the number of snapshot attempts before the error
	// surfaces to the caller.
	saveRetries = 5

	// saveBackoff is the backoff unit between retries; the wait grows
	// linearly with the attempt number.
	saveBackoff = 200 * time.Millisecond
)

// expectedColumns is the fixed schema the on-disk metadata table must
// match. Values are broad type categories, not exact declared types.
var expectedColumns = map[string]string{
	"id":         "TEXT",
	"prompt":     "TEXT",
	"checked":    "INTEGER",
	"rating":     "INTEGER",
	"tags":       "TEXT",
	"size":       "INTEGER",
	"hash":       "TEXT",
	"image_path": "TEXT",
	"thumbnail":  "BLOB",
	"created_at": "TIMESTAMP",
	"updated_at": "TIMESTAMP",
}

var (
	textTypes      = map[string]bool{"TEXT": true, "VARCHAR": true, "CHAR": true, "CLOB": true}
	integerTypes   = map[string]bool{"INTEGER": true, "INT": true, "BIGINT": true}
	timestampTypes = map[string]bool{"TIMESTAMP": true, "DATETIME": true, "TEXT": true}
	blobTypes      = map[string]bool{"BLOB": true, "": true}
)

// loadFromDisk imports the durable snapshot into the mirror. Returns
// false with a nil error when no file exists, and false with an error
// when the file exists but its schema does not match the expected
// column set; in both cases the caller proceeds with a fresh schema.
// A mismatched schema is never partially imported.
func (d *Database) loadFromDisk() (bool, error) {
	if _, err := os.Stat(d.diskPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", d.diskPath, err)
	}

	disk, err := sql.Open("sqlite3", "file:"+d.diskPath+"?mode=ro")
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", d.diskPath, err)
	}
	defer func() {
		if closeErr := disk.Close(); closeErr != nil {
			logging.Error("failed to close disk database after load: %v", closeErr)
		}
	}()

	if err := validateDiskSchema(disk); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := transfer(d.db, disk); err != nil {
		return false, fmt.Errorf("snapshot transfer from disk failed: %w", err)
	}
	return true, nil
}

// validateDiskSchema checks that the on-disk metadata table exists and
// that every expected column is present with a compatible type
// category. Extra columns are tolerated; missing or mismatched ones
// reject the whole file.
func validateDiskSchema(disk *sql.DB) error {
	var name string
	err := disk.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='metadata'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("on-disk file has no metadata table")
	}
	if err != nil {
		return fmt.Errorf("failed to inspect on-disk schema: %w", err)
	}

	rows, err := disk.Query("SELECT name, type FROM pragma_table_info('metadata')")
	if err != nil {
		return fmt.Errorf("failed to read on-disk table info: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var colName, colType string
		if err := rows.Scan(&colName, &colType); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		columns[colName] = strings.ToUpper(colType)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read table info: %w", err)
	}

	var missing []string
	for col := range expectedColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("on-disk metadata table is missing columns: %v", missing)
	}

	var mismatched []string
	for col, expected := range expectedColumns {
		actual := columns[col]
		ok := true
		switch expected {
		case "TEXT":
			ok = textTypes[actual]
		case "INTEGER":
			ok = integerTypes[actual]
		case "TIMESTAMP":
			ok = timestampTypes[actual]
		case "BLOB":
			ok = blobTypes[actual]
		}
		if !ok {
			mismatched = append(mismatched, fmt.Sprintf("%s: expected %s, found %s", col, expected, actual))
		}
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("on-disk metadata table has mismatched column types: %v", mismatched)
	}

	return nil
}

// saveToDisk snapshots the mirror to the durable file. It is a no-op
// when the metadata table is empty so a startup race can never
// overwrite a populated on-disk copy with an empty one. Transient
// failures retry with linearly increasing backoff before the last
// error surfaces.
func (d *Database) saveToDisk(trigger string) error {
	start := time.Now()

	if d.countMetadata() == 0 {
		logging.Debug("Skipping save: metadata table is empty")
		return nil
	}

	dir := filepath.Dir(d.diskPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.FlushTotal.WithLabelValues(trigger, "error").Inc()
		return fmt.Errorf("failed to create metadata directory %s: %w", dir, err)
	}

	var lastErr error
	for attempt := 1; attempt <= saveRetries; attempt++ {
		lastErr = d.snapshotToFile()
		if lastErr == nil {
			d.setDirty(false)
			metrics.FlushTotal.WithLabelValues(trigger, "success").Inc()
			metrics.FlushDuration.Observe(time.Since(start).Seconds())
			metrics.FlushLastTimestamp.SetToCurrentTime()
			logging.Info("Saved metadata database to %s", d.diskPath)
			return nil
		}

		if attempt < saveRetries {
			backoff := time.Duration(attempt) * saveBackoff
			logging.Warn("Save attempt %d/%d failed: %v, retrying in %v",
				attempt, saveRetries, lastErr, backoff)
			metrics.FlushRetries.Inc()
			time.Sleep(backoff)
		}
	}

	metrics.FlushTotal.WithLabelValues(trigger, "error").Inc()
	return fmt.Errorf("failed to save metadata database after %d attempts: %w", saveRetries, lastErr)
}

// snapshotToFile performs one full snapshot transfer memory→disk. The
// guard is held in read mode only for the duration of the copy step
// itself, not for retries or directory work.
func (d *Database) snapshotToFile() error {
	disk, err := sql.Open("sqlite3", d.diskPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", d.diskPath, err)
	}
	defer func() {
		if closeErr := disk.Close(); closeErr != nil {
			logging.Error("failed to close disk database after save: %v", closeErr)
		}
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	return transfer(disk, d.db)
}

// transfer copies the entire main database from src into dst using the
// SQLite online backup API: a point-in-time full snapshot, not
// row-by-row parsing.
func transfer(dst, src *sql.DB) error {
	ctx := context.Background()

	dstConn, err := dst.Conn(ctx)
	if err != nil {
		return err
	}
	defer dstConn.Close()

	srcConn, err := src.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()

	return dstConn.Raw(func(rawDst interface{}) error {
		return srcConn.Raw(func(rawSrc interface{}) error {
			dstSQLite, ok := rawDst.(*sqlite3.SQLiteConn)
			if !ok {
				return errors.New("destination connection is not sqlite3")
			}
			srcSQLite, ok := rawSrc.(*sqlite3.SQLiteConn)
			if !ok {
				return errors.New("source connection is not sqlite3")
			}

			bk, err := dstSQLite.Backup("main", srcSQLite, "main")
			if err != nil {
				return err
			}

			done, err := bk.Step(-1)
			if finishErr := bk.Finish(); err == nil {
				err = finishErr
			}
			if err != nil {
				return err
			}
			if !done {
				return errors.New("backup did not complete")
			}
			return nil
		})
	})
}

// Cleanup drops records whose image path no longer resolves to an
// existing file. Resolution errors count as missing; individual
// failures never abort the scan. Returns the number removed.
func (d *Database) Cleanup(resolve func(string) (string, error)) (int, error) {
	type pathRow struct {
		id   string
		path string
	}

	d.mu.RLock()
	rows, err := d.db.Query("SELECT id, image_path FROM metadata")
	if err != nil {
		d.mu.RUnlock()
		return 0, fmt.Errorf("cleanup scan failed: %w", err)
	}

	var all []pathRow
	for rows.Next() {
		var r pathRow
		if err := rows.Scan(&r.id, &r.path); err != nil {
			logging.Warn("Cleanup: failed to scan row: %v", err)
			continue
		}
		all = append(all, r)
	}
	scanErr := rows.Err()
	rows.Close()
	d.mu.RUnlock()

	if scanErr != nil {
		return 0, fmt.Errorf("cleanup scan failed: %w", scanErr)
	}

	var stale []string
	for _, r := range all {
		abs, err := resolve(r.path)
		if err != nil {
			logging.Debug("Cleanup: cannot resolve %s: %v", r.path, err)
			stale = append(stale, r.id)
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			stale = append(stale, r.id)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}

	removed, err := d.DeleteByIDs(stale, false)
	if err != nil {
		return 0, fmt.Errorf("cleanup delete failed: %w", err)
	}

	metrics.CleanupRemovedTotal.Add(float64(removed))
	logging.Info("Cleanup removed %d stale metadata records", removed)
	return removed, nil
}
