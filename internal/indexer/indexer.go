package indexer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"image-browser/internal/database"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/paths"
	"image-browser/internal/workers"
)

const (
	// defaultBatchSize is the number of processed records accumulated
	// before a forced flush to disk.
	defaultBatchSize = 100

	// maxWorkers caps the pool regardless of CPU count.
	maxWorkers = 32
)

// metadataStore is the slice of the store facade the builder needs.
type metadataStore interface {
	Get(path string) (*database.Metadata, error)
	GetByPaths(paths []string) ([]*database.Metadata, error)
	Save(records []*database.Metadata) error
	ForceSave() error
}

// thumbnailer produces encoded thumbnail bytes for an image file.
type thumbnailer interface {
	Generate(path string) ([]byte, error)
}

// Stats summarizes one build run.
type Stats struct {
	Found    int
	New      int
	Updated  int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Builder runs the batch indexing pass.
type Builder struct {
	store     metadataStore
	resolver  *paths.Resolver
	thumbs    thumbnailer
	batchSize int
	workers   int
}

func New(store metadataStore, resolver *paths.Resolver, thumbs thumbnailer) *Builder {
	return &Builder{
		store:     store,
		resolver:  resolver,
		thumbs:    thumbs,
		batchSize: defaultBatchSize,
		workers:   workers.ForMixed(maxWorkers),
	}
}

type result struct {
	record *database.Metadata
	status string // "new", "updated", "skipped", "error"
}

// Run walks the image root and brings every image's metadata record
// and thumbnail up to date. Records are saved in batches with a forced
// flush, so an interrupted run keeps everything processed so far.
func (b *Builder) Run() (*Stats, error) {
	start := time.Now()

	if err := b.backupDatabase(); err != nil {
		logging.Warn("Database backup failed: %v", err)
	}

	images, err := b.resolver.WalkImages()
	if err != nil {
		return nil, fmt.Errorf("failed to walk image root: %w", err)
	}

	stats := &Stats{Found: len(images)}
	if len(images) == 0 {
		logging.Info("No images found under %s", b.resolver.Root())
		stats.Duration = time.Since(start)
		return stats, nil
	}

	logging.Info("Indexing %d images with %d workers", len(images), b.workers)

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				results <- b.process(rel)
			}
		}()
	}

	go func() {
		for _, rel := range images {
			jobs <- rel
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var batch []*database.Metadata
	for r := range results {
		switch r.status {
		case "skipped":
			stats.Skipped++
		case "error":
			stats.Failed++
		case "updated":
			stats.Updated++
		case "new":
			stats.New++
		}
		metrics.BuildFilesProcessed.WithLabelValues(r.status).Inc()

		if r.record != nil {
			batch = append(batch, r.record)
			if len(batch) >= b.batchSize {
				b.flush(batch, stats)
				batch = nil
			}
		}
	}
	if len(batch) > 0 {
		b.flush(batch, stats)
	}

	if err := b.store.ForceSave(); err != nil {
		logging.Error("Final save failed: %v", err)
	}

	stats.Duration = time.Since(start)
	metrics.BuildLastRunDuration.Set(stats.Duration.Seconds())
	logging.Info("Index build finished in %v: %d new, %d updated, %d skipped, %d failed",
		stats.Duration, stats.New, stats.Updated, stats.Skipped, stats.Failed)
	return stats, nil
}

// process handles one image: records that already carry a thumbnail
// are skipped, existing records get their missing thumbnail, and
// unknown images get a full record plus thumbnail.
func (b *Builder) process(rel string) result {
	existing, err := b.store.GetByPaths([]string{rel})
	if err != nil {
		logging.Error("Failed to look up %s: %v", rel, err)
		return result{status: "error"}
	}

	var m *database.Metadata
	status := "updated"
	if len(existing) > 0 && existing[0] != nil {
		m = existing[0]
		if len(m.Thumbnail) > 0 {
			return result{status: "skipped"}
		}
	} else {
		m, err = b.store.Get(rel)
		if err != nil {
			logging.Error("Failed to create metadata for %s: %v", rel, err)
			return result{status: "error"}
		}
		status = "new"
	}

	abs, err := b.resolver.Absolute(rel)
	if err != nil {
		logging.Error("Failed to resolve %s: %v", rel, err)
		return result{status: "error"}
	}

	thumb, err := b.thumbs.Generate(abs)
	if err != nil {
		// The record is still worth keeping; the thumbnail can be
		// generated lazily on first view.
		logging.Warn("Thumbnail for %s failed: %v", rel, err)
		return result{record: m, status: status}
	}
	m.Thumbnail = thumb
	return result{record: m, status: status}
}

// flush saves one batch; failures demote the whole batch to failed.
func (b *Builder) flush(batch []*database.Metadata, stats *Stats) {
	logging.Debug("Saving batch of %d records", len(batch))
	if err := b.store.Save(batch); err != nil {
		logging.Error("Failed to save batch of %d records: %v", len(batch), err)
		stats.Failed += len(batch)
	}
}

// backupDatabase copies an existing durable database file aside before
// the build touches it.
func (b *Builder) backupDatabase() error {
	dbPath := b.resolver.DatabasePath()
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	backupPath := fmt.Sprintf("%s.%s", dbPath, time.Now().Format("2006-01-02_15-04-05"))

	src, err := os.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			logging.Warn("failed to close database file after backup: %v", closeErr)
		}
	}()

	dst, err := os.Create(backupPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	logging.Info("Backed up existing database to %s", backupPath)
	return nil
}
