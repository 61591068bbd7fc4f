package media

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"image-browser/internal/logging"
)

// Hasher computes MD5 content hashes of image files.
type Hasher struct{}

func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash returns the hex MD5 digest of the file contents. The file is
// streamed, never loaded whole.
func (h *Hasher) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn("failed to close %s after hashing: %v", path, closeErr)
		}
	}()

	sum := md5.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}
