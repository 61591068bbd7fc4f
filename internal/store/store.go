package store

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"image-browser/internal/database"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/paths"
)

// Hasher computes a content hash of the file at path.
type Hasher interface {
	Hash(path string) (string, error)
}

// PromptExtractor pulls the generation prompt out of an image file.
// It never fails; images without a prompt yield a fallback string.
type PromptExtractor interface {
	Extract(path string) string
}

// TagInferrer derives tags from the prompt and the image itself.
type TagInferrer interface {
	Infer(path, prompt string) []string
}

// ThumbnailGenerator produces encoded thumbnail bytes for an image.
type ThumbnailGenerator interface {
	Generate(path string) ([]byte, error)
}

// Store wraps the metadata engine with path normalization and
// first-access record creation. All paths crossing its boundary are
// root-relative with forward slashes; absolute paths are accepted and
// normalized on the way in.
type Store struct {
	db       *database.Database
	resolver *paths.Resolver

	hasher  Hasher
	prompts PromptExtractor
	tagger  TagInferrer
	thumbs  ThumbnailGenerator
}

func New(db *database.Database, resolver *paths.Resolver, hasher Hasher,
	prompts PromptExtractor, tagger TagInferrer, thumbs ThumbnailGenerator) *Store {
	s := &Store{
		db:       db,
		resolver: resolver,
		hasher:   hasher,
		prompts:  prompts,
		tagger:   tagger,
		thumbs:   thumbs,
	}
	s.refreshGauges()
	return s
}

// Cleanup drops records whose image file no longer exists under the
// root. Run once at startup before serving.
func (s *Store) Cleanup() (int, error) {
	removed, err := s.db.Cleanup(s.resolver.Absolute)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.refreshGauges()
	}
	return removed, nil
}

// Get returns the record for the image at path, creating one when the
// file exists but has no record yet. Creation fills id, size, hash,
// prompt and inferred tags, then arms a debounced flush. Two callers
// racing on the same new path both succeed; the unique image_path
// upsert keeps exactly one record.
func (s *Store) Get(path string) (m *database.Metadata, err error) {
	start := time.Now()
	defer func() { recordQuery("get", start, err) }()

	rel := s.resolver.Normalize(path)

	m, err = s.db.SelectByPath(rel)
	if err != nil || m != nil {
		return m, err
	}

	abs, err := s.resolver.Absolute(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("image %s not accessible: %w", rel, err)
	}

	m = s.buildRecord(rel, abs, info.Size())
	if err = s.db.Upsert([]*database.Metadata{m}, false); err != nil {
		return nil, err
	}
	s.refreshGauges()

	// Re-read so a lost creation race returns the surviving record.
	return s.db.SelectByPath(rel)
}

// buildRecord assembles a fresh record for a file seen for the first
// time. Hash failures are logged and leave the hash empty rather than
// blocking creation.
func (s *Store) buildRecord(rel, abs string, size int64) *database.Metadata {
	hash, err := s.hasher.Hash(abs)
	if err != nil {
		logging.Warn("Failed to hash %s: %v", rel, err)
	}

	prompt := s.prompts.Extract(abs)

	return &database.Metadata{
		ID:        uuid.NewString(),
		ImagePath: rel,
		Prompt:    prompt,
		Tags:      s.tagger.Infer(abs, prompt),
		Size:      size,
		Hash:      hash,
	}
}

// GetByPaths returns records for the given paths, position-aligned
// with nil for paths that have no record. It never creates.
func (s *Store) GetByPaths(pathsIn []string) (result []*database.Metadata, err error) {
	start := time.Now()
	defer func() { recordQuery("get_by_paths", start, err) }()

	rels := make([]string, len(pathsIn))
	for i, p := range pathsIn {
		rels[i] = s.resolver.Normalize(p)
	}
	return s.db.SelectByPaths(rels)
}

// GetByIDs returns records keyed by id; unknown ids are absent.
func (s *Store) GetByIDs(ids []string) (result map[string]*database.Metadata, err error) {
	start := time.Now()
	defer func() { recordQuery("get_by_ids", start, err) }()
	return s.db.SelectByIDs(ids)
}

// GetAll returns every record.
func (s *Store) GetAll() (result []*database.Metadata, err error) {
	start := time.Now()
	defer func() { recordQuery("get_all", start, err) }()
	return s.db.SelectAll()
}

// GetByFolder returns records for a folder's immediate children. A nil
// folder means all records; an empty folder is the root level.
func (s *Store) GetByFolder(folder *string) (result []*database.Metadata, err error) {
	start := time.Now()
	defer func() { recordQuery("get_by_folder", start, err) }()

	if folder != nil {
		rel := s.resolver.Normalize(*folder)
		folder = &rel
	}
	return s.db.SelectByFolder(folder)
}

// Save persists records. A single record arms the debounced flush; a
// batch flushes to disk before returning.
func (s *Store) Save(records []*database.Metadata) (err error) {
	start := time.Now()
	op := "save"
	force := false
	if len(records) > 1 {
		op = "save_batch"
		force = true
	}
	defer func() { recordQuery(op, start, err) }()

	for _, m := range records {
		m.ImagePath = s.resolver.Normalize(m.ImagePath)
	}
	if err = s.db.Upsert(records, force); err != nil {
		return err
	}
	s.refreshGauges()
	return nil
}

// Update applies partial updates to the mutable fields of existing
// records and returns how many matched. Unknown ids are skipped.
func (s *Store) Update(updates []database.MetadataUpdate) (applied int, err error) {
	start := time.Now()
	defer func() { recordQuery("update", start, err) }()
	return s.db.UpdateFields(updates, false)
}

// UncheckAll clears the checked flag on every record with a forced
// flush, returning how many changed.
func (s *Store) UncheckAll() (applied int, err error) {
	start := time.Now()
	defer func() { recordQuery("update", start, err) }()

	all, err := s.db.SelectAll()
	if err != nil {
		return 0, err
	}

	unchecked := false
	updates := make([]database.MetadataUpdate, 0, len(all))
	for _, m := range all {
		if m.Checked {
			updates = append(updates, database.MetadataUpdate{ID: m.ID, Checked: &unchecked})
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}
	return s.db.UpdateFields(updates, true)
}

// Delete removes records and their bookmarks, flushing to disk before
// returning. Returns the number of metadata records removed.
func (s *Store) Delete(ids []string) (removed int, err error) {
	start := time.Now()
	defer func() { recordQuery("delete", start, err) }()

	for _, id := range ids {
		if _, bErr := s.db.DeleteBookmarksByMetadataID(id, false); bErr != nil {
			logging.Warn("Failed to delete bookmarks for %s: %v", id, bErr)
		}
	}

	removed, err = s.db.DeleteByIDs(ids, true)
	if err != nil {
		return 0, err
	}
	s.refreshGauges()
	return removed, nil
}

// Thumbnail returns the thumbnail bytes for the image at path,
// generating and storing them on first request.
func (s *Store) Thumbnail(path string) (data []byte, err error) {
	start := time.Now()
	defer func() { recordQuery("thumbnail", start, err) }()

	m, err := s.Get(path)
	if err != nil {
		return nil, err
	}
	if len(m.Thumbnail) > 0 {
		return m.Thumbnail, nil
	}

	abs, err := s.resolver.Absolute(m.ImagePath)
	if err != nil {
		return nil, err
	}
	data, err = s.thumbs.Generate(abs)
	if err != nil {
		return nil, err
	}

	m.Thumbnail = data
	if err = s.db.Upsert([]*database.Metadata{m}, false); err != nil {
		return nil, err
	}
	return data, nil
}

// ForceSave cancels any pending debounced flush and snapshots to disk
// now.
func (s *Store) ForceSave() error {
	return s.db.ForceSave()
}

// LoadedRows reports how many records were imported from disk at
// startup.
func (s *Store) LoadedRows() int {
	return s.db.LoadedRows()
}

// Close shuts the engine down without flushing; call ForceSave first
// when durability matters.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) refreshGauges() {
	all, err := s.db.SelectAll()
	if err != nil {
		logging.Warn("Failed to refresh record gauge: %v", err)
		return
	}
	metrics.StoreRecordsTotal.Set(float64(len(all)))
	metrics.StoreBookmarksTotal.Set(float64(s.db.CountBookmarks()))
}

func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(duration)
}
