package database

import (
	"fmt"
	"reflect"
	"testing"
)

func TestUpsertAndSelectByPath(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	want := testRecord("id-1", "folder/cat.png")
	want.Checked = true
	want.Rating = 4
	want.Thumbnail = []byte{0xff, 0xd8, 0xff}

	if err := db.Upsert([]*Metadata{want}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.SelectByPath("folder/cat.png")
	if err != nil {
		t.Fatalf("SelectByPath failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record, got nil")
	}

	if got.ID != want.ID || got.Prompt != want.Prompt || got.Checked != want.Checked ||
		got.Rating != want.Rating || got.Size != want.Size || got.Hash != want.Hash ||
		got.ImagePath != want.ImagePath {
		t.Errorf("round-trip mismatch: got %+v want %+v", got, want)
	}
	if !reflect.DeepEqual(got.Tags, want.Tags) {
		t.Errorf("tags mismatch: got %v want %v", got.Tags, want.Tags)
	}
	if !reflect.DeepEqual(got.Thumbnail, want.Thumbnail) {
		t.Errorf("thumbnail mismatch: got %v want %v", got.Thumbnail, want.Thumbnail)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be server-assigned")
	}
}

func TestSelectByPathAbsent(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	got, err := db.SelectByPath("missing.png")
	if err != nil {
		t.Fatalf("SelectByPath should not error for absent path: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent path, got %+v", got)
	}
}

func TestUniquePathLastWriterWins(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	first := testRecord("id-1", "same.png")
	second := testRecord("id-2", "same.png")

	if err := db.Upsert([]*Metadata{first}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := db.Upsert([]*Metadata{second}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.SelectByPath("same.png")
	if err != nil {
		t.Fatalf("SelectByPath failed: %v", err)
	}
	if got == nil || got.ID != "id-2" {
		t.Fatalf("expected last writer id-2 to own the path, got %+v", got)
	}

	all, err := db.SelectAll()
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected a single live record per path, got %d", len(all))
	}
}

func TestResaveWithNewPathRemovesOldMapping(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	r := testRecord("id-1", "old.png")
	if err := db.Upsert([]*Metadata{r}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	r.ImagePath = "new.png"
	if err := db.Upsert([]*Metadata{r}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	old, err := db.SelectByPath("old.png")
	if err != nil {
		t.Fatalf("SelectByPath failed: %v", err)
	}
	if old != nil {
		t.Errorf("old path mapping should be gone, got %+v", old)
	}

	moved, err := db.SelectByPath("new.png")
	if err != nil {
		t.Fatalf("SelectByPath failed: %v", err)
	}
	if moved == nil || moved.ID != "id-1" {
		t.Errorf("expected id-1 at new path, got %+v", moved)
	}
}

func TestBatchUpsertMatchesSingleLoop(t *testing.T) {
	t.Parallel()

	single, _ := setupTestDB(t)
	batch, _ := setupTestDB(t)

	var records []*Metadata
	for i := 0; i < 25; i++ {
		records = append(records, testRecord(fmt.Sprintf("id-%d", i), fmt.Sprintf("img-%d.png", i)))
	}

	for _, r := range records {
		if err := single.Upsert([]*Metadata{r}, false); err != nil {
			t.Fatalf("single Upsert failed: %v", err)
		}
	}
	if err := batch.Upsert(records, false); err != nil {
		t.Fatalf("batch Upsert failed: %v", err)
	}

	singleAll, err := single.SelectAll()
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	batchAll, err := batch.SelectAll()
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(singleAll) != len(batchAll) {
		t.Fatalf("row count mismatch: single %d, batch %d", len(singleAll), len(batchAll))
	}

	byPath := make(map[string]*Metadata, len(batchAll))
	for _, m := range batchAll {
		byPath[m.ImagePath] = m
	}
	for _, m := range singleAll {
		other := byPath[m.ImagePath]
		if other == nil || other.ID != m.ID || other.Prompt != m.Prompt {
			t.Errorf("batch/single divergence at %s", m.ImagePath)
		}
	}
}

func TestSelectByPathsAligned(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if err := db.Upsert([]*Metadata{
		testRecord("id-1", "a.png"),
		testRecord("id-2", "b.png"),
	}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.SelectByPaths([]string{"b.png", "missing.png", "a.png"})
	if err != nil {
		t.Fatalf("SelectByPaths failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 aligned entries, got %d", len(got))
	}
	if got[0] == nil || got[0].ID != "id-2" {
		t.Errorf("entry 0 should be id-2, got %+v", got[0])
	}
	if got[1] != nil {
		t.Errorf("entry 1 should be nil, got %+v", got[1])
	}
	if got[2] == nil || got[2].ID != "id-1" {
		t.Errorf("entry 2 should be id-1, got %+v", got[2])
	}
}

func TestSelectByIDs(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if err := db.Upsert([]*Metadata{
		testRecord("id-1", "a.png"),
		testRecord("id-2", "b.png"),
	}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.SelectByIDs([]string{"id-2", "unknown"})
	if err != nil {
		t.Fatalf("SelectByIDs failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got["id-2"] == nil || got["id-2"].ImagePath != "b.png" {
		t.Errorf("unexpected entry for id-2: %+v", got["id-2"])
	}
}

func TestSelectByFolder(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if err := db.Upsert([]*Metadata{
		testRecord("id-1", "root.png"),
		testRecord("id-2", "cats/cat.png"),
		testRecord("id-3", "cats/kittens/small.png"),
		testRecord("id-4", "dogs/dog.png"),
	}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	tests := []struct {
		name      string
		folder    *string
		wantPaths []string
	}{
		{
			name:      "nil folder means all records",
			folder:    nil,
			wantPaths: []string{"root.png", "cats/cat.png", "cats/kittens/small.png", "dogs/dog.png"},
		},
		{
			name:      "empty folder means root-level only",
			folder:    strPtr(""),
			wantPaths: []string{"root.png"},
		},
		{
			name:      "folder excludes nested subdirectories",
			folder:    strPtr("cats"),
			wantPaths: []string{"cats/cat.png"},
		},
		{
			name:      "nested folder",
			folder:    strPtr("cats/kittens"),
			wantPaths: []string{"cats/kittens/small.png"},
		},
		{
			name:      "unknown folder is empty, not an error",
			folder:    strPtr("birds"),
			wantPaths: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.SelectByFolder(tt.folder)
			if err != nil {
				t.Fatalf("SelectByFolder failed: %v", err)
			}
			gotPaths := make(map[string]bool, len(got))
			for _, m := range got {
				gotPaths[m.ImagePath] = true
			}
			if len(got) != len(tt.wantPaths) {
				t.Fatalf("expected %d records, got %d (%v)", len(tt.wantPaths), len(got), gotPaths)
			}
			for _, p := range tt.wantPaths {
				if !gotPaths[p] {
					t.Errorf("missing expected path %s", p)
				}
			}
		})
	}
}

func TestUpdateFieldsSkipsUnknownIDs(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if err := db.Upsert([]*Metadata{testRecord("known", "a.png")}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	rating := 5
	applied, err := db.UpdateFields([]MetadataUpdate{
		{ID: "unknown", Rating: &rating},
		{ID: "known", Rating: &rating},
	}, false)
	if err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("expected applied count 1, got %d", applied)
	}

	got, err := db.SelectByIDs([]string{"known"})
	if err != nil {
		t.Fatalf("SelectByIDs failed: %v", err)
	}
	if got["known"].Rating != 5 {
		t.Errorf("expected rating 5, got %d", got["known"].Rating)
	}
}

func TestUpdateFieldsOnlyMutableColumns(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	original := testRecord("id-1", "a.png")
	if err := db.Upsert([]*Metadata{original}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	checked := true
	tags := []string{"updated"}
	if _, err := db.UpdateFields([]MetadataUpdate{
		{ID: "id-1", Checked: &checked, Tags: &tags},
	}, false); err != nil {
		t.Fatalf("UpdateFields failed: %v", err)
	}

	got, err := db.SelectByPath("a.png")
	if err != nil {
		t.Fatalf("SelectByPath failed: %v", err)
	}
	if !got.Checked {
		t.Error("checked should be updated")
	}
	if !reflect.DeepEqual(got.Tags, tags) {
		t.Errorf("tags should be updated, got %v", got.Tags)
	}
	// Identity and write-once fields are untouched.
	if got.ID != "id-1" || got.Prompt != original.Prompt || got.Hash != original.Hash {
		t.Errorf("immutable fields changed: %+v", got)
	}
}

func TestUpdateFieldsMissingIDFails(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	rating := 3
	if _, err := db.UpdateFields([]MetadataUpdate{{Rating: &rating}}, false); err == nil {
		t.Fatal("expected error for update without id")
	}
}

func TestDeleteByIDs(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	if err := db.Upsert([]*Metadata{
		testRecord("id-1", "a.png"),
		testRecord("id-2", "b.png"),
	}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	removed, err := db.DeleteByIDs([]string{"id-1", "unknown"}, false)
	if err != nil {
		t.Fatalf("DeleteByIDs failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected removed count 1, got %d", removed)
	}

	all, err := db.SelectAll()
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != "id-2" {
		t.Errorf("expected only id-2 to remain, got %+v", all)
	}
}

func TestTagsDeduplicated(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t)

	r := testRecord("id-1", "a.png")
	r.Tags = []string{"cat", "cat", "Cat", "dog", "cat"}
	if err := db.Upsert([]*Metadata{r}, false); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := db.SelectByPath("a.png")
	if err != nil {
		t.Fatalf("SelectByPath failed: %v", err)
	}
	want := []string{"cat", "Cat", "dog"} // case-sensitive, first occurrence order
	if !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("tags not deduplicated with stable order: got %v want %v", got.Tags, want)
	}
}

func strPtr(s string) *string { return &s }
