package importer

import (
	"testing"
	"time"

	"github.com/untoldecay/cora/internal/manifest"
	"github.com/untoldecay/cora/internal/types"
)

func TestSortDocumentsForImport(t *testing.T) {
	docs := []*manifest.Document{
		{ID: 1, GroupID: types.Int64Ptr(5), SortOrder: types.Int64Ptr(1)},
		{ID: 2, GroupID: types.Int64Ptr(5), SortOrder: nil},
		{ID: 3, GroupID: nil, SortOrder: types.Int64Ptr(0)},
		{ID: 4, GroupID: types.Int64Ptr(2), SortOrder: types.Int64Ptr(0)},
		{ID: 5, GroupID: types.Int64Ptr(5), SortOrder: types.Int64Ptr(0)},
	}
	SortDocumentsForImport(docs)

	want := []int64{3, 4, 5, 1, 2}
	for i, d := range docs {
		if d.ID != want[i] {
			t.Fatalf("position %d: got doc %d, want %d", i, d.ID, want[i])
		}
	}
}

func TestChildrenByParent(t *testing.T) {
	groups := []*types.Group{
		{ID: 1, Name: "b", SortOrder: 1},
		{ID: 2, Name: "a", SortOrder: 0},
		{ID: 3, Name: "child", ParentID: types.Int64Ptr(1), SortOrder: 0},
		{ID: 4, Name: "orphan", ParentID: types.Int64Ptr(99), SortOrder: 0},
	}
	children := ChildrenByParent(groups)

	var roots []string
	for _, g := range children[0] {
		roots = append(roots, g.Name)
	}
	if len(roots) != 3 || roots[0] != "a" || roots[1] != "orphan" || roots[2] != "b" {
		t.Errorf("roots = %v, want [a orphan b]", roots)
	}
	if len(children[1]) != 1 || children[1][0].ID != 3 {
		t.Errorf("children of 1 = %v", children[1])
	}
}

func TestParseDraftTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-04-01T09:00:00.123456789Z", time.Date(2024, 4, 1, 9, 0, 0, 123456789, time.UTC)},
		{"2024-04-01T11:00:00+02:00", time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-04-01 09:00:00", time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-04-01", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"yesterday", time.Time{}},
	}
	for _, tt := range tests {
		if got := ParseDraftTime(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseDraftTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
