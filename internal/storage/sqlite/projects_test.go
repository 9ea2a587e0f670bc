package sqlite

import (
	"testing"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.Store.CreateProject(env.Ctx, &types.Project{Name: "Book", Desc: "a novel"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if p.CreatedAt.IsZero() || !p.UpdatedAt.Equal(p.CreatedAt) {
		t.Errorf("timestamps = %v / %v", p.CreatedAt, p.UpdatedAt)
	}

	got, err := env.Store.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "Book" || got.Desc != "a novel" || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("project = %+v", got)
	}

	updated, err := env.Store.UpdateProject(env.Ctx, p.ID, types.ProjectUpdate{Notes: types.StringPtr("outline first")})
	if err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	if updated.Name != "Book" || updated.Notes != "outline first" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.UpdatedAt.Before(p.UpdatedAt) {
		t.Errorf("updated_at went backwards")
	}

	g := env.CreateGroup(p, "Part", nil)
	d := env.CreateDoc(p, "Ch1", g)
	if _, err := env.Store.CreateTimeline(env.Ctx, &types.Timeline{EntityType: types.TimelineDoc, EntityID: d.ID}); err != nil {
		t.Fatalf("CreateTimeline failed: %v", err)
	}

	if err := env.Store.DeleteProject(env.Ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := env.Store.GetGroup(env.Ctx, g.ID); !storage.IsNotFound(err) {
		t.Errorf("group survived project delete: %v", err)
	}
	if _, err := env.Store.GetTimelineByEntity(env.Ctx, types.TimelineDoc, d.ID); !storage.IsNotFound(err) {
		t.Errorf("document timeline survived project delete: %v", err)
	}
	if err := env.Store.DeleteProject(env.Ctx, p.ID); !storage.IsNotFound(err) {
		t.Errorf("second DeleteProject error = %v, want not found", err)
	}
}

func TestListProjectsByName(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"zeta", "Alpha", "beta"} {
		env.CreateProject(name)
	}
	projects, err := env.Store.ListProjects(env.Ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	want := []string{"Alpha", "beta", "zeta"}
	for i, p := range projects {
		if p.Name != want[i] {
			t.Errorf("projects[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := t.TempDir() + "/reopen.db"
	first := newTestStore(t, path)
	p, err := first.CreateProject(t.Context(), &types.Project{Name: "Book"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := newTestStore(t, path)
	got, err := second.GetProject(t.Context(), p.ID)
	if err != nil {
		t.Fatalf("GetProject after reopen failed: %v", err)
	}
	if got.Name != "Book" {
		t.Errorf("name = %q", got.Name)
	}
}
