package store

import (
	"time"

	"github.com/google/uuid"

	"image-browser/internal/database"
)

// Bookmarks returns all bookmarks, newest first.
func (s *Store) Bookmarks() (result []*database.Bookmark, err error) {
	start := time.Now()
	defer func() { recordQuery("bookmark_list", start, err) }()
	return s.db.SelectBookmarks()
}

// AddBookmark stores a bookmark, assigning an id when the caller did
// not. The image path in the bookmark is normalized like any other.
func (s *Store) AddBookmark(b *database.Bookmark) (err error) {
	start := time.Now()
	defer func() { recordQuery("bookmark_add", start, err) }()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.ImagePath = s.resolver.Normalize(b.ImagePath)

	if err = s.db.InsertBookmark(b, false); err != nil {
		return err
	}
	s.refreshGauges()
	return nil
}

// RemoveBookmarks deletes all bookmarks for a metadata id and returns
// the count removed.
func (s *Store) RemoveBookmarks(metadataID string) (removed int, err error) {
	start := time.Now()
	defer func() { recordQuery("bookmark_remove", start, err) }()

	removed, err = s.db.DeleteBookmarksByMetadataID(metadataID, false)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.refreshGauges()
	}
	return removed, nil
}

// HasBookmark reports whether the metadata id has any bookmark.
func (s *Store) HasBookmark(metadataID string) (has bool, err error) {
	start := time.Now()
	defer func() { recordQuery("bookmark_has", start, err) }()
	return s.db.HasBookmark(metadataID)
}
