package listing

import (
	"testing"
	"time"

	"image-browser/internal/database"
)

func record(path, prompt string, rating int, tags ...string) *database.Metadata {
	return &database.Metadata{
		ID:        path,
		ImagePath: path,
		Prompt:    prompt,
		Rating:    rating,
		Tags:      tags,
	}
}

func pathsOf(items []*database.Metadata) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.ImagePath
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field, order string
		wantField    SortField
		wantOrder    SortOrder
	}{
		{"rating", "desc", SortByRating, SortDesc},
		{"Date", "ASC", SortByDate, SortAsc},
		{"bogus", "sideways", SortByFilename, SortAsc},
		{"", "", SortByFilename, SortAsc},
	}

	for _, tt := range tests {
		f, o := ParseSort(tt.field, tt.order)
		if f != tt.wantField || o != tt.wantOrder {
			t.Errorf("ParseSort(%q, %q) = %s, %s", tt.field, tt.order, f, o)
		}
	}
}

func TestSortByFields(t *testing.T) {
	t.Parallel()

	items := func() []*database.Metadata {
		return []*database.Metadata{
			record("b.png", "zebra", 1),
			record("a.png", "apple", 3),
			record("c.png", "mango", 2),
		}
	}

	tests := []struct {
		name  string
		field SortField
		order SortOrder
		want  []string
	}{
		{"filename asc", SortByFilename, SortAsc, []string{"a.png", "b.png", "c.png"}},
		{"filename desc", SortByFilename, SortDesc, []string{"c.png", "b.png", "a.png"}},
		{"prompt asc", SortByPrompt, SortAsc, []string{"a.png", "c.png", "b.png"}},
		{"rating desc", SortByRating, SortDesc, []string{"a.png", "c.png", "b.png"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := items()
			Sort(got, tt.field, tt.order, nil)
			if !equal(pathsOf(got), tt.want) {
				t.Errorf("Sort = %v, want %v", pathsOf(got), tt.want)
			}
		})
	}
}

func TestSortByDateUsesMTime(t *testing.T) {
	t.Parallel()

	items := []*database.Metadata{
		record("new.png", "", 0),
		record("old.png", "", 0),
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mtimes := map[string]time.Time{
		"old.png": base,
		"new.png": base.Add(time.Hour),
	}

	Sort(items, SortByDate, SortAsc, func(rel string) time.Time { return mtimes[rel] })
	if !equal(pathsOf(items), []string{"old.png", "new.png"}) {
		t.Errorf("date sort = %v", pathsOf(items))
	}
}

func TestSortStable(t *testing.T) {
	t.Parallel()

	items := []*database.Metadata{
		record("b.png", "", 5),
		record("a.png", "", 5),
		record("c.png", "", 5),
	}

	// Equal ratings keep their original order.
	Sort(items, SortByRating, SortAsc, nil)
	if !equal(pathsOf(items), []string{"b.png", "a.png", "c.png"}) {
		t.Errorf("stable sort reordered equals: %v", pathsOf(items))
	}
}

func TestFilterByPrompt(t *testing.T) {
	t.Parallel()

	items := []*database.Metadata{
		record("a.png", "a castle at sunset", 0),
		record("b.png", "a forest in fog", 0),
		record("c.png", "Sunset over the sea", 0),
	}

	got := Filter(items, "SUNSET")
	if !equal(pathsOf(got), []string{"a.png", "c.png"}) {
		t.Errorf("Filter = %v", pathsOf(got))
	}

	if got := Filter(items, "  "); len(got) != 3 {
		t.Errorf("blank search should return everything, got %d", len(got))
	}
}

func TestFilterByTags(t *testing.T) {
	t.Parallel()

	items := []*database.Metadata{
		record("a.png", "", 0, "castle", "sunset"),
		record("b.png", "", 0, "forest"),
		record("c.png", "", 0, "castle", "night"),
		record("d.png", "", 0),
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"tags:castle", []string{"a.png", "c.png"}},
		{"tag:castle,sunset", []string{"a.png"}},
		{"t:sunset|night", []string{"a.png", "c.png"}},
		{"tags:castle,sunset|night", []string{"a.png", "c.png"}},
		{"tags:", []string{"d.png"}},
		{"tags:CASTLE", []string{"a.png", "c.png"}},
	}

	for _, tt := range tests {
		got := Filter(items, tt.search)
		if !equal(pathsOf(got), tt.want) {
			t.Errorf("Filter(%q) = %v, want %v", tt.search, pathsOf(got), tt.want)
		}
	}
}

func TestPage(t *testing.T) {
	t.Parallel()

	items := []*database.Metadata{
		record("a.png", "", 0),
		record("b.png", "", 0),
		record("c.png", "", 0),
		record("d.png", "", 0),
		record("e.png", "", 0),
	}

	tests := []struct {
		page, perPage int
		want          []string
	}{
		{1, 2, []string{"a.png", "b.png"}},
		{2, 2, []string{"c.png", "d.png"}},
		{3, 2, []string{"e.png"}},
		{4, 2, []string{}},
		{0, 0, []string{"a.png", "b.png", "c.png", "d.png", "e.png"}},
	}

	for _, tt := range tests {
		got, total := Page(items, tt.page, tt.perPage)
		if total != 5 {
			t.Errorf("Page total = %d, want 5", total)
		}
		if !equal(pathsOf(got), tt.want) {
			t.Errorf("Page(%d, %d) = %v, want %v", tt.page, tt.perPage, pathsOf(got), tt.want)
		}
	}
}
