package database

import (
	"fmt"
	"time"

	"image-browser/internal/logging"
)

// InsertBookmark adds a bookmark. There is no foreign-key cascade to
// metadata; an orphaned bookmark is tolerated by design.
func (d *Database) InsertBookmark(b *Bookmark, force bool) error {
	if b.ID == "" {
		return ErrMissingID
	}

	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	d.mu.Lock()
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO bookmarks
		(id, metadata_id, image_path, folder_path, filename, prompt, sort_by, search_query, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.MetadataID, b.ImagePath, b.FolderPath, b.Filename, b.Prompt,
		b.SortBy, b.SearchQuery, createdAt)
	d.mu.Unlock()

	if err != nil {
		return fmt.Errorf("insert bookmark failed: %w", err)
	}
	return d.markDirty(force)
}

// DeleteBookmarksByMetadataID removes every bookmark pointing at the
// metadata id and returns the count removed.
func (d *Database) DeleteBookmarksByMetadataID(metadataID string, force bool) (int, error) {
	d.mu.Lock()
	res, err := d.db.Exec("DELETE FROM bookmarks WHERE metadata_id = ?", metadataID)
	d.mu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("delete bookmark failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := d.markDirty(force); err != nil {
			return int(n), err
		}
	}
	return int(n), nil
}

// SelectBookmarks returns all bookmarks, newest first.
func (d *Database) SelectBookmarks() ([]*Bookmark, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, metadata_id, image_path, folder_path, filename, prompt, sort_by, search_query, created_at
		FROM bookmarks ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select bookmarks failed: %w", err)
	}
	defer rows.Close()

	var result []*Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.MetadataID, &b.ImagePath, &b.FolderPath,
			&b.Filename, &b.Prompt, &b.SortBy, &b.SearchQuery, &b.CreatedAt); err != nil {
			logging.Warn("Failed to scan bookmark row: %v", err)
			continue
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select bookmarks failed: %w", err)
	}
	return result, nil
}

// HasBookmark reports whether any bookmark references the metadata id.
func (d *Database) HasBookmark(metadataID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM bookmarks WHERE metadata_id = ?", metadataID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("bookmark lookup failed: %w", err)
	}
	return count > 0, nil
}

// CountBookmarks returns the number of bookmarks.
func (d *Database) CountBookmarks() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&count); err != nil {
		logging.Warn("Failed to count bookmarks: %v", err)
		return 0
	}
	return count
}
