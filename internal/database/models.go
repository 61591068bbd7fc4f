package database

import (
	"encoding/json"
	"time"
)

// Metadata is one indexed image's record. ImagePath is relative to the
// image root and forward-slash normalized; it is unique among all live
// records. ID never changes once assigned.
type Metadata struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	Prompt    string    `json:"prompt"`
	Checked   bool      `json:"checked"`
	Rating    int       `json:"rating"`
	Tags      []string  `json:"tags"`
	Size      int64     `json:"size"`
	Hash      string    `json:"hash"`
	Thumbnail []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Bookmark is a saved reference to a metadata record plus the browsing
// context needed to restore the session. No cascade: a bookmark may
// outlive its metadata record.
type Bookmark struct {
	ID          string    `json:"id"`
	MetadataID  string    `json:"metadataId"`
	ImagePath   string    `json:"imagePath"`
	FolderPath  string    `json:"folderPath"`
	Filename    string    `json:"filename"`
	Prompt      string    `json:"prompt"`
	SortBy      string    `json:"sortBy"`
	SearchQuery string    `json:"searchQuery"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MetadataUpdate is a partial update of a record's mutable fields.
// Nil fields are left untouched; only checked, rating and tags may be
// changed after creation.
type MetadataUpdate struct {
	ID      string    `json:"id"`
	Checked *bool     `json:"checked,omitempty"`
	Rating  *int      `json:"rating,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// encodeTags deduplicates tags (case-sensitive, first occurrence wins)
// and serializes them as a JSON array for the tags column.
func encodeTags(tags []string) string {
	deduped := dedupeTags(tags)
	data, err := json.Marshal(deduped)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeTags parses the tags column. Malformed values decode to an
// empty list rather than failing the row.
func decodeTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
