package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashKnownDigest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := NewHasher().Hash(path)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if want := "900150983cd24fb0d6963f7d28e17f72"; got != want {
		t.Errorf("Hash = %s, want %s", got, want)
	}
}

func TestHashMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := NewHasher().Hash(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
