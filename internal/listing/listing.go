package listing

import (
	"sort"
	"strings"
	"time"

	"image-browser/internal/database"
)

// SortField specifies which record field to sort by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	SortByFilename SortField = "filename"
	SortByDate     SortField = "date"
	SortByPrompt   SortField = "prompt"
	SortByRating   SortField = "rating"
	SortByTags     SortField = "tags"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSort validates query parameters, falling back to
// filename/ascending for anything unrecognized.
func ParseSort(field, order string) (SortField, SortOrder) {
	f := SortField(strings.ToLower(strings.TrimSpace(field)))
	switch f {
	case SortByFilename, SortByDate, SortByPrompt, SortByRating, SortByTags:
	default:
		f = SortByFilename
	}

	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	if o != SortDesc {
		o = SortAsc
	}
	return f, o
}

// MTimeFunc resolves a record's image path to its file modification
// time, used for date sorting.
type MTimeFunc func(rel string) time.Time

// Sort orders records in place. Date sorting consults mtime once per
// record; a nil mtime falls back to the record's update timestamp.
func Sort(items []*database.Metadata, field SortField, order SortOrder, mtime MTimeFunc) {
	var less func(a, b *database.Metadata) bool

	switch field {
	case SortByDate:
		times := make(map[string]time.Time, len(items))
		for _, m := range items {
			if mtime != nil {
				times[m.ImagePath] = mtime(m.ImagePath)
			} else {
				times[m.ImagePath] = m.UpdatedAt
			}
		}
		less = func(a, b *database.Metadata) bool {
			return times[a.ImagePath].Before(times[b.ImagePath])
		}
	case SortByPrompt:
		less = func(a, b *database.Metadata) bool {
			return strings.ToLower(a.Prompt) < strings.ToLower(b.Prompt)
		}
	case SortByRating:
		less = func(a, b *database.Metadata) bool {
			return a.Rating < b.Rating
		}
	case SortByTags:
		less = func(a, b *database.Metadata) bool {
			return strings.ToLower(strings.Join(a.Tags, ", ")) < strings.ToLower(strings.Join(b.Tags, ", "))
		}
	default:
		less = func(a, b *database.Metadata) bool {
			return strings.ToLower(a.ImagePath) < strings.ToLower(b.ImagePath)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if order == SortDesc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// Filter narrows records by a search query. A plain query is a
// case-insensitive substring match on the prompt. Queries prefixed
// with "tags:", "tag:" or "t:" match tags instead: comma-separated
// groups must all match, "|" within a group means any-of, and an empty
// tag query selects untagged records.
func Filter(items []*database.Metadata, search string) []*database.Metadata {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return items
	}

	for _, prefix := range []string{"tags:", "tag:", "t:"} {
		if strings.HasPrefix(search, prefix) {
			return filterByTags(items, strings.TrimSpace(strings.TrimPrefix(search, prefix)))
		}
	}

	var result []*database.Metadata
	for _, m := range items {
		if strings.Contains(strings.ToLower(m.Prompt), search) {
			result = append(result, m)
		}
	}
	return result
}

func filterByTags(items []*database.Metadata, raw string) []*database.Metadata {
	if raw == "" {
		var result []*database.Metadata
		for _, m := range items {
			if len(m.Tags) == 0 {
				result = append(result, m)
			}
		}
		return result
	}

	var groups [][]string
	for _, part := range strings.Split(raw, ",") {
		var group []string
		for _, tag := range strings.Split(part, "|") {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				group = append(group, tag)
			}
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	var result []*database.Metadata
	for _, m := range items {
		tags := make(map[string]bool, len(m.Tags))
		for _, tag := range m.Tags {
			tags[strings.ToLower(strings.TrimSpace(tag))] = true
		}

		matched := true
		for _, group := range groups {
			any := false
			for _, tag := range group {
				if tags[tag] {
					any = true
					break
				}
			}
			if !any {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, m)
		}
	}
	return result
}

// DefaultPerPage is the page size when the client does not specify one.
const DefaultPerPage = 100

// Page slices out one page (1-based). Out-of-range pages return an
// empty slice; the total count is returned for the client's pager.
func Page(items []*database.Metadata, page, perPage int) ([]*database.Metadata, int) {
	total := len(items)

	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * perPage
	if start >= total {
		return []*database.Metadata{}, total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return items[start:end], total
}
