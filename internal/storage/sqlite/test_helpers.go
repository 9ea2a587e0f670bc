package sqlite

import (
	"context"
	"sort"
	"testing"

	"github.com/untoldecay/cora/internal/types"
)

// testEnv provides a test environment with common setup and helpers.
// Use newTestEnv(t) to create a test environment with automatic cleanup.
type testEnv struct {
	t     *testing.T
	Store *SQLiteStorage
	Ctx   context.Context
}

// newTestEnv creates a new test environment with a configured store.
// The store is automatically cleaned up when the test completes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:     t,
		Store: newTestStore(t, ""),
		Ctx:   context.Background(),
	}
}

// CreateProject creates a project with the given name.
func (e *testEnv) CreateProject(name string) *types.Project {
	e.t.Helper()
	p, err := e.Store.CreateProject(e.Ctx, &types.Project{Name: name})
	if err != nil {
		e.t.Fatalf("CreateProject(%q) failed: %v", name, err)
	}
	return p
}

// CreateGroup appends a group under parent (nil for a root group).
func (e *testEnv) CreateGroup(project *types.Project, name string, parent *types.Group) *types.Group {
	e.t.Helper()
	var parentID *int64
	if parent != nil {
		parentID = &parent.ID
	}
	g, err := e.Store.CreateGroup(e.Ctx, project.ID, name, parentID)
	if err != nil {
		e.t.Fatalf("CreateGroup(%q) failed: %v", name, err)
	}
	return g
}

// CreateDoc appends a document to group (nil for unfiled).
func (e *testEnv) CreateDoc(project *types.Project, name string, group *types.Group) *types.Document {
	e.t.Helper()
	var groupID *int64
	if group != nil {
		groupID = &group.ID
	}
	d, err := e.Store.CreateDocument(e.Ctx, project.ID, name, groupID)
	if err != nil {
		e.t.Fatalf("CreateDocument(%q) failed: %v", name, err)
	}
	return d
}

// GroupOrder reloads a group and returns its sort order.
func (e *testEnv) GroupOrder(id int64) int64 {
	e.t.Helper()
	g, err := e.Store.GetGroup(e.Ctx, id)
	if err != nil {
		e.t.Fatalf("GetGroup(%d) failed: %v", id, err)
	}
	return g.SortOrder
}

// DocOrder reloads a document and returns its sort order (-1 when unset).
func (e *testEnv) DocOrder(id int64) int64 {
	e.t.Helper()
	d, err := e.Store.GetDocument(e.Ctx, id)
	if err != nil {
		e.t.Fatalf("GetDocument(%d) failed: %v", id, err)
	}
	if d.SortOrder == nil {
		return -1
	}
	return *d.SortOrder
}

// GroupNames returns sibling group names under parent in sort order.
func (e *testEnv) GroupNames(project *types.Project, parent *types.Group) []string {
	e.t.Helper()
	groups, err := e.Store.ListGroups(e.Ctx, project.ID)
	if err != nil {
		e.t.Fatalf("ListGroups failed: %v", err)
	}
	var names []string
	for _, g := range groups {
		if (parent == nil && g.ParentID == nil) || (parent != nil && g.ParentID != nil && *g.ParentID == parent.ID) {
			names = append(names, g.Name)
		}
	}
	return names
}

// DocNames returns document names in group (nil for unfiled) in sort order.
func (e *testEnv) DocNames(project *types.Project, group *types.Group) []string {
	e.t.Helper()
	docs, err := e.Store.ListDocuments(e.Ctx, project.ID)
	if err != nil {
		e.t.Fatalf("ListDocuments failed: %v", err)
	}
	var names []string
	for _, d := range docs {
		if (group == nil && d.GroupID == nil) || (group != nil && d.GroupID != nil && *d.GroupID == group.ID) {
			names = append(names, d.Name)
		}
	}
	return names
}

// AssertGroupsDense checks that every group sibling set of the project
// holds exactly the orders 0..n-1.
func (e *testEnv) AssertGroupsDense(project *types.Project) {
	e.t.Helper()
	groups, err := e.Store.ListGroups(e.Ctx, project.ID)
	if err != nil {
		e.t.Fatalf("ListGroups failed: %v", err)
	}
	sets := make(map[int64][]int64)
	for _, g := range groups {
		key := int64(-1)
		if g.ParentID != nil {
			key = *g.ParentID
		}
		sets[key] = append(sets[key], g.SortOrder)
	}
	for parent, orders := range sets {
		assertDense(e.t, "groups under "+parentKey(parent), orders)
	}
}

// AssertDocsDense checks that every ordered document sibling set of the
// project holds exactly the orders 0..n-1.
func (e *testEnv) AssertDocsDense(project *types.Project) {
	e.t.Helper()
	docs, err := e.Store.ListDocuments(e.Ctx, project.ID)
	if err != nil {
		e.t.Fatalf("ListDocuments failed: %v", err)
	}
	sets := make(map[int64][]int64)
	for _, d := range docs {
		if d.SortOrder == nil {
			continue
		}
		key := int64(-1)
		if d.GroupID != nil {
			key = *d.GroupID
		}
		sets[key] = append(sets[key], *d.SortOrder)
	}
	for group, orders := range sets {
		assertDense(e.t, "documents in "+parentKey(group), orders)
	}
}

func parentKey(id int64) string {
	if id < 0 {
		return "root"
	}
	return describeParent(&id)
}

func assertDense(t *testing.T, what string, orders []int64) {
	t.Helper()
	sorted := append([]int64(nil), orders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, o := range sorted {
		if o != int64(i) {
			t.Errorf("%s: orders %v are not dense 0..%d", what, sorted, len(sorted)-1)
			return
		}
	}
}

// newTestStore creates a file-backed SQLiteStorage in a temp dir.
// Pass a custom dbPath to reopen an existing database.
func newTestStore(t *testing.T, dbPath string) *SQLiteStorage {
	t.Helper()

	if dbPath == "" {
		dbPath = t.TempDir() + "/test.db"
	}

	store, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Fatalf("Failed to close test database: %v", cerr)
		}
	})

	return store
}
