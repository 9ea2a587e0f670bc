package sqlite

import (
	"testing"
	"time"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

func TestProjectDraftLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")

	outline, err := env.Store.CreateProjectDraft(env.Ctx, p.ID, "Outline", "act one")
	if err != nil {
		t.Fatalf("CreateProjectDraft failed: %v", err)
	}
	synopsis, err := env.Store.CreateProjectDraft(env.Ctx, p.ID, "Synopsis", "")
	if err != nil {
		t.Fatalf("CreateProjectDraft failed: %v", err)
	}

	// Touching the older draft moves it to the front.
	time.Sleep(5 * time.Millisecond)
	updated, err := env.Store.UpdateProjectDraft(env.Ctx, outline.ID, types.DraftUpdate{Content: types.StringPtr("act two")})
	if err != nil {
		t.Fatalf("UpdateProjectDraft failed: %v", err)
	}
	if updated.Name != "Outline" || updated.Content != "act two" {
		t.Errorf("updated = %+v", updated)
	}

	list, err := env.Store.ListProjectDrafts(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("ListProjectDrafts failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != outline.ID || list[1].ID != synopsis.ID {
		t.Fatalf("list = %+v, want outline then synopsis", list)
	}

	if err := env.Store.DeleteProjectDraft(env.Ctx, synopsis.ID); err != nil {
		t.Fatalf("DeleteProjectDraft failed: %v", err)
	}
	if err := env.Store.DeleteProjectDraft(env.Ctx, synopsis.ID); !storage.IsNotFound(err) {
		t.Errorf("second DeleteProjectDraft error = %v, want not found", err)
	}
	if _, err := env.Store.GetProjectDraft(env.Ctx, synopsis.ID); !storage.IsNotFound(err) {
		t.Errorf("GetProjectDraft after delete = %v, want not found", err)
	}
	if _, err := env.Store.UpdateProjectDraft(env.Ctx, synopsis.ID, types.DraftUpdate{}); !storage.IsNotFound(err) {
		t.Errorf("UpdateProjectDraft(missing) error = %v, want not found", err)
	}
	if _, err := env.Store.CreateProjectDraft(env.Ctx, p.ID+100, "x", ""); !storage.IsNotFound(err) {
		t.Errorf("CreateProjectDraft for missing project error = %v, want not found", err)
	}
}

func TestProjectDraftsDeleteAllAndCascade(t *testing.T) {
	env := newTestEnv(t)
	keep := env.CreateProject("Keep")
	drop := env.CreateProject("Drop")

	for _, p := range []*types.Project{keep, keep, drop} {
		if _, err := env.Store.CreateProjectDraft(env.Ctx, p.ID, "notes", ""); err != nil {
			t.Fatalf("CreateProjectDraft failed: %v", err)
		}
	}

	if err := env.Store.DeleteAllProjectDrafts(env.Ctx, keep.ID); err != nil {
		t.Fatalf("DeleteAllProjectDrafts failed: %v", err)
	}
	if list, _ := env.Store.ListProjectDrafts(env.Ctx, keep.ID); len(list) != 0 {
		t.Errorf("drafts after DeleteAll = %d, want 0", len(list))
	}

	if err := env.Store.DeleteProject(env.Ctx, drop.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	var n int
	if err := env.Store.db.QueryRow(`SELECT COUNT(*) FROM project_drafts WHERE project_id = ?`, drop.ID).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("drafts after project delete = %d, want 0", n)
	}
}
