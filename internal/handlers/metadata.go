package handlers

import (
	"net/http"

	"image-browser/internal/database"
	"image-browser/internal/logging"
)

// UpdateMetadata applies a batch of partial updates. Unknown ids are
// skipped; the response reports how many records were changed.
func (h *Handlers) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var updates []database.MetadataUpdate
	if err := decodeJSON(r, &updates); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(updates) == 0 {
		writeJSONError(w, "no updates provided", http.StatusBadRequest)
		return
	}
	for _, u := range updates {
		if u.ID == "" {
			writeJSONError(w, "update is missing an id", http.StatusBadRequest)
			return
		}
	}

	applied, err := h.store.Update(updates)
	if err != nil {
		logging.Error("failed to update metadata: %v", err)
		writeJSONError(w, "failed to update metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"updated": applied})
}

// DeleteMetadata removes records (and their bookmarks) by id.
func (h *Handlers) DeleteMetadata(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body.IDs) == 0 {
		writeJSONError(w, "no ids provided", http.StatusBadRequest)
		return
	}

	removed, err := h.store.Delete(body.IDs)
	if err != nil {
		logging.Error("failed to delete metadata: %v", err)
		writeJSONError(w, "failed to delete metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"deleted": removed})
}

// UncheckAll clears the checked flag on every record.
func (h *Handlers) UncheckAll(w http.ResponseWriter, _ *http.Request) {
	applied, err := h.store.UncheckAll()
	if err != nil {
		logging.Error("failed to uncheck records: %v", err)
		writeJSONError(w, "failed to uncheck records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"unchecked": applied})
}
