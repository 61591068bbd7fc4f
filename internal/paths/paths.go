package paths

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"image-browser/internal/logging"
)

// MetadataDirName is the reserved subdirectory of the image root that
// holds the durable metadata database.
const MetadataDirName = ".metadata"

// DatabaseFileName is the name of the durable metadata database file.
const DatabaseFileName = "metadata.db"

// ImageExtensions maps file extensions to whether they are supported
// image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Resolver translates between root-relative, forward-slash normalized
// paths (the form stored in metadata records) and absolute filesystem
// paths, enforcing that every path stays inside the configured root.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver for the given image root directory.
// The root is resolved to an absolute path once at construction.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve image root %q: %w", root, err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute image root directory.
func (r *Resolver) Root() string {
	return r.root
}

// DatabasePath returns the absolute path of the durable metadata
// database file under the image root.
func (r *Resolver) DatabasePath() string {
	return filepath.Join(r.root, MetadataDirName, DatabaseFileName)
}

// Normalize converts a path to the canonical stored form: relative to
// the root where possible, forward slashes, no leading "./".
func (r *Resolver) Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(r.root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	p = filepath.ToSlash(p)
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// Absolute resolves a stored relative path to an absolute filesystem
// path, rejecting paths that escape the root.
func (r *Resolver) Absolute(rel string) (string, error) {
	full := filepath.Join(r.root, filepath.FromSlash(rel))

	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if abs != r.root && !strings.HasPrefix(abs, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes image root: %w", rel, os.ErrPermission)
	}
	return abs, nil
}

// Relative converts an absolute path inside the root to its stored
// relative, forward-slash form.
func (r *Resolver) Relative(abs string) (string, error) {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q is outside image root: %w", abs, os.ErrPermission)
	}
	return filepath.ToSlash(rel), nil
}

// Folder returns the stored folder portion of a relative image path
// ("" for root-level files).
func Folder(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}

// IsImage reports whether the file name has a supported image extension.
func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// WalkImages walks the image root and returns the stored relative
// paths of all image files, skipping hidden directories (including the
// metadata directory itself). Unreadable subtrees are logged and
// skipped rather than failing the walk.
func (r *Resolver) WalkImages() ([]string, error) {
	var images []string

	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Skipping unreadable path %s: %v", p, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != r.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImage(d.Name()) {
			return nil
		}
		rel, relErr := r.Relative(p)
		if relErr != nil {
			logging.Warn("Skipping %s: %v", p, relErr)
			return nil
		}
		images = append(images, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
