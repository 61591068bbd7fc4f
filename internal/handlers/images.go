package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"image-browser/internal/database"
	"image-browser/internal/listing"
	"image-browser/internal/logging"

	"github.com/gorilla/mux"
)

// ListResponse is the paginated folder listing payload.
type ListResponse struct {
	Images  []*database.Metadata `json:"images"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"perPage"`
}

// ListImages returns the metadata records of one folder (or of the
// whole root), filtered, sorted and paginated.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	var folder *string
	if vals, ok := q["folder"]; ok && len(vals) > 0 {
		folder = &vals[0]
	}

	records, err := h.store.GetByFolder(folder)
	if err != nil {
		logging.Error("failed to list images: %v", err)
		writeJSONError(w, "failed to list images", http.StatusInternalServerError)
		return
	}

	records = listing.Filter(records, q.Get("search"))

	field, order := listing.ParseSort(q.Get("sort"), q.Get("order"))
	listing.Sort(records, field, order, h.mtime)

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	perPage := listing.DefaultPerPage
	if pp, err := strconv.Atoi(q.Get("perPage")); err == nil && pp > 0 {
		perPage = pp
	}

	pageItems, total := listing.Page(records, page, perPage)

	logging.Debug("ListImages completed in %v: %d of %d records",
		time.Since(start), len(pageItems), total)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ListResponse{
		Images:  pageItems,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// GetImage returns the metadata record for one image path, creating
// the record on first sight of the file.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	m, err := h.store.Get(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			writeJSONError(w, "image not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get metadata for %s: %v", rel, err)
		writeJSONError(w, "failed to get metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, m)
}

// GetFile serves the original image file.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	abs, err := h.resolver.Absolute(rel)
	if err != nil {
		writeJSONError(w, "invalid path", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(abs); err != nil {
		writeJSONError(w, "file not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, abs)
}
