package handlers

import (
	"net/http"

	"image-browser/internal/database"
	"image-browser/internal/logging"

	"github.com/gorilla/mux"
)

// ListBookmarks returns all bookmarks, newest first.
func (h *Handlers) ListBookmarks(w http.ResponseWriter, _ *http.Request) {
	bookmarks, err := h.store.Bookmarks()
	if err != nil {
		logging.Error("failed to list bookmarks: %v", err)
		writeJSONError(w, "failed to list bookmarks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, bookmarks)
}

// AddBookmark saves a bookmark. A bookmark for the same metadata id
// replaces the previous one.
func (h *Handlers) AddBookmark(w http.ResponseWriter, r *http.Request) {
	var b database.Bookmark
	if err := decodeJSON(r, &b); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if b.MetadataID == "" {
		writeJSONError(w, "bookmark is missing a metadata id", http.StatusBadRequest)
		return
	}

	if err := h.store.AddBookmark(&b); err != nil {
		logging.Error("failed to add bookmark: %v", err)
		writeJSONError(w, "failed to add bookmark", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, b)
}

// RemoveBookmarks deletes every bookmark pointing at a metadata id.
func (h *Handlers) RemoveBookmarks(w http.ResponseWriter, r *http.Request) {
	metadataID := mux.Vars(r)["metadataId"]

	removed, err := h.store.RemoveBookmarks(metadataID)
	if err != nil {
		logging.Error("failed to remove bookmarks for %s: %v", metadataID, err)
		writeJSONError(w, "failed to remove bookmarks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"removed": removed})
}

// HasBookmark reports whether a metadata id has a bookmark.
func (h *Handlers) HasBookmark(w http.ResponseWriter, r *http.Request) {
	metadataID := mux.Vars(r)["metadataId"]

	has, err := h.store.HasBookmark(metadataID)
	if err != nil {
		logging.Error("failed to check bookmark for %s: %v", metadataID, err)
		writeJSONError(w, "failed to check bookmark", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"bookmarked": has})
}
