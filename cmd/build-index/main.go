// Command build-index walks the image root and brings the metadata
// database up to date in one batch pass: new images get records and
// thumbnails, existing records get their missing thumbnails, and
// complete records are skipped. Configuration comes from the same
// environment variables as the server.
package main

import (
	"time"

	"image-browser/internal/database"
	"image-browser/internal/indexer"
	"image-browser/internal/logging"
	"image-browser/internal/media"
	"image-browser/internal/paths"
	"image-browser/internal/startup"
	"image-browser/internal/store"
	"image-browser/internal/tagger"
)

func main() {
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	resolver, err := paths.NewResolver(config.ImagesDir)
	if err != nil {
		startup.LogFatal("Failed to resolve image root: %v", err)
	}

	dbStart := time.Now()
	db, err := database.New(resolver.DatabasePath(), config.SaveDebounce)
	if err != nil {
		startup.LogFatal("Failed to initialize metadata database: %v", err)
	}
	defer db.Close()
	startup.LogStoreInit(db.LoadedRows(), time.Since(dbStart))

	thumbs := media.NewThumbnailGenerator(config.ThumbnailSize)
	st := store.New(db, resolver,
		media.NewHasher(),
		media.NewPromptExtractor(),
		tagger.New(config.AutoTags),
		thumbs)

	if config.CleanupOnStart {
		removed, err := st.Cleanup()
		startup.LogCleanupResult(removed, err)
	}

	builder := indexer.New(st, resolver, thumbs)
	stats, err := builder.Run()
	if err != nil {
		startup.LogFatal("Index build failed: %v", err)
	}

	logging.Info("Build summary: %d found, %d new, %d updated, %d skipped, %d failed in %v",
		stats.Found, stats.New, stats.Updated, stats.Skipped, stats.Failed, stats.Duration)
}
