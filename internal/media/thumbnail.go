package media

import (
	"bytes"
	"fmt"
	"time"

	"image-browser/internal/logging"
	"image-browser/internal/metrics"

	"github.com/disintegration/imaging"
)

const (
	// DefaultThumbnailSize is the bounding box the thumbnail fits in.
	DefaultThumbnailSize = 320

	// thumbnailJPEGQuality balances blob size against visible quality.
	thumbnailJPEGQuality = 80
)

// ThumbnailGenerator produces JPEG thumbnail bytes for storage in the
// metadata record's blob column.
type ThumbnailGenerator struct {
	size    int
	retries int
	wait    time.Duration
}

func NewThumbnailGenerator(size int) *ThumbnailGenerator {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return &ThumbnailGenerator{
		size: size,
		// An indexer can race a file still being written; retry a few
		// times before giving up on it.
		retries: 5,
		wait:    time.Second,
	}
}

// Generate decodes the image, fits it within the configured box and
// returns it as encoded JPEG bytes. A file that fails to decode is
// retried, since a partially written image decodes again once the
// writer finishes.
func (t *ThumbnailGenerator) Generate(path string) ([]byte, error) {
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= t.retries; attempt++ {
		data, err := t.generate(path)
		if err == nil {
			metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
			metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
			return data, nil
		}
		lastErr = err

		if attempt < t.retries {
			logging.Warn("Thumbnail attempt %d/%d for %s failed: %v, retrying in %v",
				attempt, t.retries, path, err, t.wait)
			time.Sleep(t.wait)
		}
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
	return nil, fmt.Errorf("thumbnail generation for %s failed after %d attempts: %w",
		path, t.retries, lastErr)
}

func (t *ThumbnailGenerator) generate(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	thumb := imaging.Fit(img, t.size, t.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
