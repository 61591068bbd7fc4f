package handlers

import (
	"os"
	"time"

	"image-browser/internal/paths"
	"image-browser/internal/store"
)

type Handlers struct {
	store     *store.Store
	resolver  *paths.Resolver
	startTime time.Time
}

func New(st *store.Store, resolver *paths.Resolver) *Handlers {
	return &Handlers{
		store:     st,
		resolver:  resolver,
		startTime: time.Now(),
	}
}

// mtime returns the modification time of the image file behind a
// stored relative path, or the zero time when it cannot be read.
func (h *Handlers) mtime(rel string) time.Time {
	abs, err := h.resolver.Absolute(rel)
	if err != nil {
		return time.Time{}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
