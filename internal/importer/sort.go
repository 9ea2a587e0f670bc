package importer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/untoldecay/cora/internal/manifest"
	"github.com/untoldecay/cora/internal/types"
)

// SortGroupsByOrder sorts siblings by their old sort order, then by old id
// for deterministic ordering.
func SortGroupsByOrder(groups []*types.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].SortOrder != groups[j].SortOrder {
			return groups[i].SortOrder < groups[j].SortOrder
		}
		return groups[i].ID < groups[j].ID
	})
}

// ChildrenByParent buckets manifest groups by their old parent id. Roots,
// and groups whose parent is absent from the manifest, land under key 0.
// Every bucket is sorted with SortGroupsByOrder.
func ChildrenByParent(groups []*types.Group) map[int64][]*types.Group {
	known := make(map[int64]bool, len(groups))
	for _, g := range groups {
		known[g.ID] = true
	}

	children := make(map[int64][]*types.Group)
	for _, g := range groups {
		var parent int64
		if g.ParentID != nil && known[*g.ParentID] {
			parent = *g.ParentID
		}
		children[parent] = append(children[parent], g)
	}
	for _, siblings := range children {
		SortGroupsByOrder(siblings)
	}
	return children
}

// SortDocumentsForImport orders manifest documents by (old group id, old
// sort order). Unfiled documents come first; documents without an order
// follow the ordered ones of their group.
func SortDocumentsForImport(docs []*manifest.Document) {
	groupOf := func(d *manifest.Document) int64 {
		if d.GroupID == nil {
			return -1
		}
		return *d.GroupID
	}
	sort.SliceStable(docs, func(i, j int) bool {
		gi, gj := groupOf(docs[i]), groupOf(docs[j])
		if gi != gj {
			return gi < gj
		}
		oi, oj := docs[i].SortOrder, docs[j].SortOrder
		switch {
		case oi == nil && oj == nil:
			return docs[i].ID < docs[j].ID
		case oi == nil:
			return false
		case oj == nil:
			return true
		case *oi != *oj:
			return *oi < *oj
		}
		return docs[i].ID < docs[j].ID
	})
}

// partitionEntries splits the entries of dir into subdirectories, sorted
// case-insensitively, and .txt files (any case), sorted lexically.
// Symlinks are classified by their target; dangling links are skipped.
func partitionEntries(dir string, entries []os.DirEntry) (dirs, files []os.DirEntry) {
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		switch {
		case info.IsDir():
			dirs = append(dirs, e)
		case info.Mode().IsRegular() && isTextFile(e.Name()):
			files = append(files, e)
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.ToLower(dirs[i].Name()) < strings.ToLower(dirs[j].Name())
	})
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})
	return dirs, files
}
