package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"image-browser/internal/logging"

	"github.com/gorilla/mux"
)

// GetThumbnail serves the stored thumbnail blob for an image,
// generating and persisting it on first request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	data, err := h.store.Thumbnail(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			writeJSONError(w, "image not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to get thumbnail for %s: %v", rel, err)
		writeJSONError(w, "failed to get thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write thumbnail response: %v", err)
	}
}
