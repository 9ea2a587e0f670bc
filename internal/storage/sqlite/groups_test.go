package sqlite

import (
	"errors"
	"reflect"
	"testing"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

func TestCreateGroupAppends(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")

	a := env.CreateGroup(p, "A", nil)
	b := env.CreateGroup(p, "B", nil)
	child := env.CreateGroup(p, "A.1", a)

	if a.SortOrder != 0 || b.SortOrder != 1 {
		t.Errorf("root orders = %d, %d, want 0, 1", a.SortOrder, b.SortOrder)
	}
	if child.SortOrder != 0 {
		t.Errorf("first child order = %d, want 0", child.SortOrder)
	}
	if child.ParentID == nil || *child.ParentID != a.ID {
		t.Errorf("child parent = %v, want %d", child.ParentID, a.ID)
	}
}

func TestPartIPartIIScenario(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")

	partI := env.CreateGroup(p, "Part I", nil)
	if partI.SortOrder != 0 {
		t.Fatalf("Part I order = %d, want 0", partI.SortOrder)
	}

	partII, err := env.Store.CreateGroupAfter(env.Ctx, p.ID, "Part II", nil, 0)
	if err != nil {
		t.Fatalf("CreateGroupAfter failed: %v", err)
	}
	if partII.SortOrder != 1 {
		t.Errorf("Part II order = %d, want 1", partII.SortOrder)
	}

	if err := env.Store.DeleteGroup(env.Ctx, partI.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if got := env.GroupOrder(partII.ID); got != 0 {
		t.Errorf("Part II order after delete = %d, want 0", got)
	}
}

func TestCreateGroupAfterShiftsLaterSiblings(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	env.CreateGroup(p, "A", nil)
	env.CreateGroup(p, "B", nil)
	env.CreateGroup(p, "C", nil)

	tests := []struct {
		name  string
		after int64
		want  []string
	}{
		{"after first", 0, []string{"A", "X", "B", "C"}},
		{"front", -1, []string{"Y", "A", "X", "B", "C"}},
		{"past end clamps", 99, []string{"Y", "A", "X", "B", "C", "Z"}},
	}
	newNames := []string{"X", "Y", "Z"}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.Store.CreateGroupAfter(env.Ctx, p.ID, newNames[i], nil, tt.after); err != nil {
				t.Fatalf("CreateGroupAfter failed: %v", err)
			}
			if got := env.GroupNames(p, nil); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			env.AssertGroupsDense(p)
		})
	}
}

func TestGroupDensityUnderMixedOperations(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")

	root := env.CreateGroup(p, "root", nil)
	var ids []int64
	for i := 0; i < 6; i++ {
		g := env.CreateGroup(p, "g", root)
		ids = append(ids, g.ID)
	}
	for _, after := range []int64{2, 0, 7, 4} {
		g, err := env.Store.CreateGroupAfter(env.Ctx, p.ID, "after", &root.ID, after)
		if err != nil {
			t.Fatalf("CreateGroupAfter(%d) failed: %v", after, err)
		}
		ids = append(ids, g.ID)
	}
	env.AssertGroupsDense(p)

	for _, i := range []int{0, 5, 7, 3} {
		if err := env.Store.DeleteGroup(env.Ctx, ids[i]); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		env.AssertGroupsDense(p)
	}

	if got := len(env.GroupNames(p, root)); got != 6 {
		t.Errorf("remaining children = %d, want 6", got)
	}
}

func TestReorderGroup(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	a := env.CreateGroup(p, "A", nil)
	b := env.CreateGroup(p, "B", nil)
	c := env.CreateGroup(p, "C", nil)

	tests := []struct {
		name string
		id   int64
		dir  types.Direction
		want []string
	}{
		{"down swaps with next", a.ID, types.DirectionDown, []string{"B", "A", "C"}},
		{"up swaps with previous", c.ID, types.DirectionUp, []string{"B", "C", "A"}},
		{"first up is a no-op", b.ID, types.DirectionUp, []string{"B", "C", "A"}},
		{"last down is a no-op", a.ID, types.DirectionDown, []string{"B", "C", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.Store.ReorderGroup(env.Ctx, tt.id, tt.dir); err != nil {
				t.Fatalf("ReorderGroup failed: %v", err)
			}
			if got := env.GroupNames(p, nil); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			env.AssertGroupsDense(p)
		})
	}
}

func TestReorderGroupRejectsUnknownDirection(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	a := env.CreateGroup(p, "A", nil)

	err := env.Store.ReorderGroup(env.Ctx, a.ID, types.Direction("left"))
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("ReorderGroup(left) error = %v, want ErrValidation", err)
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	part := env.CreateGroup(p, "Part", nil)
	chapter := env.CreateGroup(p, "Chapter", part)
	doc := env.CreateDoc(p, "Scene", chapter)
	keep := env.CreateDoc(p, "Loose", nil)

	if _, err := env.Store.CreateTimeline(env.Ctx, &types.Timeline{EntityType: types.TimelineFolder, EntityID: chapter.ID, StartDate: "1900"}); err != nil {
		t.Fatalf("CreateTimeline failed: %v", err)
	}

	if err := env.Store.DeleteGroup(env.Ctx, part.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	if _, err := env.Store.GetGroup(env.Ctx, chapter.ID); !storage.IsNotFound(err) {
		t.Errorf("child group should be gone, got %v", err)
	}
	if _, err := env.Store.GetDocument(env.Ctx, doc.ID); !storage.IsNotFound(err) {
		t.Errorf("descendant document should be gone, got %v", err)
	}
	if _, err := env.Store.GetDocument(env.Ctx, keep.ID); err != nil {
		t.Errorf("unfiled document should survive: %v", err)
	}
	if _, err := env.Store.GetTimelineByEntity(env.Ctx, types.TimelineFolder, chapter.ID); !storage.IsNotFound(err) {
		t.Errorf("descendant timeline should be gone, got %v", err)
	}
}

func TestGroupValidationAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	other := env.CreateProject("Other")
	foreign := env.CreateGroup(other, "Elsewhere", nil)

	if _, err := env.Store.CreateGroup(env.Ctx, p.ID, "   ", nil); !storage.IsValidation(err) {
		t.Errorf("blank name error = %v, want validation", err)
	}
	if _, err := env.Store.CreateGroup(env.Ctx, p.ID, "X", types.Int64Ptr(9999)); !storage.IsNotFound(err) {
		t.Errorf("missing parent error = %v, want not found", err)
	}
	if _, err := env.Store.CreateGroup(env.Ctx, p.ID, "X", &foreign.ID); !storage.IsNotFound(err) {
		t.Errorf("foreign parent error = %v, want not found", err)
	}
	if _, err := env.Store.CreateGroup(env.Ctx, 9999, "X", nil); !storage.IsNotFound(err) {
		t.Errorf("missing project error = %v, want not found", err)
	}
	if err := env.Store.DeleteGroup(env.Ctx, 9999); !storage.IsNotFound(err) {
		t.Errorf("DeleteGroup(missing) error = %v, want not found", err)
	}
	if err := env.Store.RenameGroup(env.Ctx, 9999, "X"); !storage.IsNotFound(err) {
		t.Errorf("RenameGroup(missing) error = %v, want not found", err)
	}
}

func TestRenameAndNotesGroup(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	g := env.CreateGroup(p, "Draft title", nil)

	if err := env.Store.RenameGroup(env.Ctx, g.ID, "Final title"); err != nil {
		t.Fatalf("RenameGroup failed: %v", err)
	}
	if err := env.Store.UpdateGroupNotes(env.Ctx, g.ID, "check dates"); err != nil {
		t.Fatalf("UpdateGroupNotes failed: %v", err)
	}

	got, err := env.Store.GetGroup(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Name != "Final title" || got.Notes != "check dates" {
		t.Errorf("group = %+v", got)
	}
	if got.SortOrder != 0 {
		t.Errorf("rename changed order to %d", got.SortOrder)
	}
}
