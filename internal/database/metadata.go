package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"image-browser/internal/logging"
)

const metadataColumns = "id, prompt, checked, rating, tags, size, hash, image_path, thumbnail, created_at, updated_at"

const upsertMetadataSQL = `
	INSERT OR REPLACE INTO metadata
	(id, prompt, checked, rating, tags, size, hash, image_path, thumbnail, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// scanMetadata reads one row into a fresh Metadata value. Every select
// goes through this, so callers always receive copies and can never
// mutate mirror-internal state.
func scanMetadata(s interface{ Scan(...interface{}) error }) (*Metadata, error) {
	var m Metadata
	var checked int
	var tags string
	var thumbnail []byte

	err := s.Scan(&m.ID, &m.Prompt, &checked, &m.Rating, &tags, &m.Size,
		&m.Hash, &m.ImagePath, &thumbnail, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Checked = checked != 0
	m.Tags = decodeTags(tags)
	if len(thumbnail) > 0 {
		m.Thumbnail = append([]byte(nil), thumbnail...)
	}
	return &m, nil
}

// upsertArgs validates a record and produces the argument list for the
// upsert statement. CreatedAt is filled on first save; UpdatedAt is
// always server-assigned.
func upsertArgs(m *Metadata, now time.Time) ([]interface{}, error) {
	if m.ID == "" {
		return nil, ErrMissingID
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	checked := 0
	if m.Checked {
		checked = 1
	}

	return []interface{}{
		m.ID, m.Prompt, checked, m.Rating, encodeTags(m.Tags), m.Size,
		m.Hash, m.ImagePath, m.Thumbnail, createdAt, now,
	}, nil
}

// Upsert inserts or replaces records by primary key. The unique
// image_path constraint makes the last writer win when two records
// reference the same file. Single-record calls arm the debounced
// flush; force triggers a synchronous snapshot before returning.
func (d *Database) Upsert(records []*Metadata, force bool) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()

	// Validate the whole batch before touching the mirror: a record
	// without an id fails the batch, it is never silently dropped.
	args := make([][]interface{}, 0, len(records))
	for _, m := range records {
		a, err := upsertArgs(m, now)
		if err != nil {
			return fmt.Errorf("invalid record for %q: %w", m.ImagePath, err)
		}
		args = append(args, a)
	}

	if err := d.execUpsert(args); err != nil {
		return err
	}

	return d.markDirty(force)
}

func (d *Database) execUpsert(args [][]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(args) == 1 {
		_, err := d.db.Exec(upsertMetadataSQL, args[0]...)
		if err != nil {
			return fmt.Errorf("upsert failed: %w", err)
		}
		return nil
	}

	// Batch variant: one transaction, one prepared statement. Final
	// state is identical to looping the single variant.
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}

	stmt, err := tx.Prepare(upsertMetadataSQL)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error("rollback after prepare failure also failed: %v", rbErr)
		}
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}

	for _, a := range args {
		if _, err := stmt.Exec(a...); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback after exec failure also failed: %v", rbErr)
			}
			return fmt.Errorf("batch upsert failed: %w", err)
		}
	}

	if err := stmt.Close(); err != nil {
		logging.Warn("failed to close upsert statement: %v", err)
	}
	return tx.Commit()
}

// SelectByPath returns the record for an image path, or nil when none
// exists. Absence is not an error.
func (d *Database) SelectByPath(path string) (*Metadata, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRow("SELECT "+metadataColumns+" FROM metadata WHERE image_path = ?", path)
	m, err := scanMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select by path failed: %w", err)
	}
	return m, nil
}

// SelectByPaths returns records aligned to the input order, nil where
// a path has no record.
func (d *Database) SelectByPaths(paths []string) ([]*Metadata, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	placeholders := strings.Repeat("?,", len(paths)-1) + "?"
	queryArgs := make([]interface{}, len(paths))
	for i, p := range paths {
		queryArgs[i] = p
	}

	rows, err := d.db.Query(
		"SELECT "+metadataColumns+" FROM metadata WHERE image_path IN ("+placeholders+")",
		queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("select by paths failed: %w", err)
	}
	defer rows.Close()

	byPath := make(map[string]*Metadata, len(paths))
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			logging.Warn("Failed to scan metadata row: %v", err)
			continue
		}
		byPath[m.ImagePath] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select by paths failed: %w", err)
	}

	result := make([]*Metadata, len(paths))
	for i, p := range paths {
		result[i] = byPath[p]
	}
	return result, nil
}

// SelectByIDs returns a map of id to record for the ids that exist.
func (d *Database) SelectByIDs(ids []string) (map[string]*Metadata, error) {
	result := make(map[string]*Metadata, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	queryArgs := make([]interface{}, len(ids))
	for i, id := range ids {
		queryArgs[i] = id
	}

	rows, err := d.db.Query(
		"SELECT "+metadataColumns+" FROM metadata WHERE id IN ("+placeholders+")",
		queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("select by ids failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			logging.Warn("Failed to scan metadata row: %v", err)
			continue
		}
		result[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select by ids failed: %w", err)
	}
	return result, nil
}

// SelectAll returns every metadata record.
func (d *Database) SelectAll() ([]*Metadata, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query("SELECT " + metadataColumns + " FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("select all failed: %w", err)
	}
	defer rows.Close()

	var result []*Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			logging.Warn("Failed to scan metadata row: %v", err)
			continue
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select all failed: %w", err)
	}
	return result, nil
}

// SelectByFolder returns records whose image is an immediate child of
// the folder, without recursion. A nil folder means all records; an
// empty folder means root-level files only.
func (d *Database) SelectByFolder(folder *string) ([]*Metadata, error) {
	if folder == nil {
		return d.SelectAll()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if *folder == "" {
		rows, err = d.db.Query(
			"SELECT " + metadataColumns + " FROM metadata WHERE instr(image_path, '/') = 0")
	} else {
		prefix := *folder + "/"
		rows, err = d.db.Query(
			"SELECT "+metadataColumns+" FROM metadata"+
				" WHERE substr(image_path, 1, length(?)) = ?"+
				" AND instr(substr(image_path, length(?) + 1), '/') = 0",
			prefix, prefix, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("select by folder failed: %w", err)
	}
	defer rows.Close()

	var result []*Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			logging.Warn("Failed to scan metadata row: %v", err)
			continue
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select by folder failed: %w", err)
	}
	return result, nil
}

// UpdateFields applies partial updates to the mutable fields (checked,
// rating, tags). Unknown ids are skipped and reduce the applied count;
// they never fail the batch. Updates with no id fail the whole batch.
func (d *Database) UpdateFields(updates []MetadataUpdate, force bool) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	for _, u := range updates {
		if u.ID == "" {
			return 0, ErrMissingID
		}
	}

	applied, err := d.execUpdates(updates)
	if err != nil {
		return applied, err
	}

	if applied > 0 {
		if err := d.markDirty(force); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

func (d *Database) execUpdates(updates []MetadataUpdate) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin update transaction: %w", err)
	}

	now := time.Now().UTC()
	applied := 0
	for _, u := range updates {
		setClauses := []string{"updated_at = ?"}
		args := []interface{}{now}

		if u.Checked != nil {
			checked := 0
			if *u.Checked {
				checked = 1
			}
			setClauses = append(setClauses, "checked = ?")
			args = append(args, checked)
		}
		if u.Rating != nil {
			setClauses = append(setClauses, "rating = ?")
			args = append(args, *u.Rating)
		}
		if u.Tags != nil {
			setClauses = append(setClauses, "tags = ?")
			args = append(args, encodeTags(*u.Tags))
		}

		if len(setClauses) == 1 {
			// Nothing mutable requested for this id.
			continue
		}

		args = append(args, u.ID)
		res, err := tx.Exec("UPDATE metadata SET "+strings.Join(setClauses, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback after update failure also failed: %v", rbErr)
			}
			return 0, fmt.Errorf("update failed for id %s: %w", u.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			applied += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit updates: %w", err)
	}
	return applied, nil
}

// DeleteByIDs removes records and returns the count removed. Unknown
// ids simply do not contribute to the count.
func (d *Database) DeleteByIDs(ids []string, force bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	removed, err := d.execDelete(ids)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		if err := d.markDirty(force); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (d *Database) execDelete(ids []string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := d.db.Exec("DELETE FROM metadata WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
