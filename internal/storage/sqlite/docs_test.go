package sqlite

import (
	"reflect"
	"testing"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

func TestMoveDocumentScenario(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	a := env.CreateGroup(p, "A", nil)
	b := env.CreateGroup(p, "B", nil)
	ch1 := env.CreateDoc(p, "Ch1", a)
	ch2 := env.CreateDoc(p, "Ch2", a)

	if *ch1.SortOrder != 0 || *ch2.SortOrder != 1 {
		t.Fatalf("initial orders = %d, %d", *ch1.SortOrder, *ch2.SortOrder)
	}

	if err := env.Store.MoveDocumentToGroup(env.Ctx, ch1.ID, &b.ID); err != nil {
		t.Fatalf("MoveDocumentToGroup failed: %v", err)
	}

	if got := env.DocNames(p, a); !reflect.DeepEqual(got, []string{"Ch2"}) {
		t.Errorf("group A = %v, want [Ch2]", got)
	}
	if got := env.DocOrder(ch2.ID); got != 0 {
		t.Errorf("Ch2 order = %d, want 0", got)
	}
	if got := env.DocNames(p, b); !reflect.DeepEqual(got, []string{"Ch1"}) {
		t.Errorf("group B = %v, want [Ch1]", got)
	}
	if got := env.DocOrder(ch1.ID); got != 0 {
		t.Errorf("Ch1 order = %d, want 0", got)
	}
}

func TestMoveDocumentKeepsBothSetsDense(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	a := env.CreateGroup(p, "A", nil)
	b := env.CreateGroup(p, "B", nil)

	var docs []*types.Document
	for _, name := range []string{"a0", "a1", "a2", "a3"} {
		docs = append(docs, env.CreateDoc(p, name, a))
	}
	env.CreateDoc(p, "b0", b)
	loose := env.CreateDoc(p, "loose", nil)

	moves := []struct {
		doc   *types.Document
		group *int64
	}{
		{docs[1], &b.ID},
		{docs[0], nil},
		{loose, &a.ID},
		{docs[3], &a.ID}, // same group: re-append at end
		{docs[1], &a.ID},
	}
	for _, m := range moves {
		if err := env.Store.MoveDocumentToGroup(env.Ctx, m.doc.ID, m.group); err != nil {
			t.Fatalf("MoveDocumentToGroup(%s) failed: %v", m.doc.Name, err)
		}
		env.AssertDocsDense(p)
	}

	if got, want := env.DocNames(p, a), []string{"a2", "loose", "a3", "a1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("group A = %v, want %v", got, want)
	}
	if got, want := env.DocNames(p, b), []string{"b0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("group B = %v, want %v", got, want)
	}
	if got, want := env.DocNames(p, nil), []string{"a0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unfiled = %v, want %v", got, want)
	}
}

func TestDocumentDensityUnderCreateAfterAndDelete(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	g := env.CreateGroup(p, "G", nil)

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, env.CreateDoc(p, "d", g).ID)
	}
	d, err := env.Store.CreateDocumentAfter(env.Ctx, p.ID, "inserted", &g.ID, 1)
	if err != nil {
		t.Fatalf("CreateDocumentAfter failed: %v", err)
	}
	if *d.SortOrder != 2 {
		t.Errorf("inserted order = %d, want 2", *d.SortOrder)
	}
	env.AssertDocsDense(p)

	for _, id := range []int64{ids[0], d.ID, ids[4]} {
		if err := env.Store.DeleteDocument(env.Ctx, id); err != nil {
			t.Fatalf("DeleteDocument failed: %v", err)
		}
		env.AssertDocsDense(p)
	}
}

func TestReorderDocumentBoundaries(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	first := env.CreateDoc(p, "first", nil)
	last := env.CreateDoc(p, "last", nil)

	if err := env.Store.ReorderDocument(env.Ctx, first.ID, types.DirectionUp); err != nil {
		t.Fatalf("ReorderDocument(up) failed: %v", err)
	}
	if err := env.Store.ReorderDocument(env.Ctx, last.ID, types.DirectionDown); err != nil {
		t.Fatalf("ReorderDocument(down) failed: %v", err)
	}
	if got, want := env.DocNames(p, nil), []string{"first", "last"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	if err := env.Store.ReorderDocument(env.Ctx, last.ID, types.DirectionUp); err != nil {
		t.Fatalf("ReorderDocument failed: %v", err)
	}
	if got, want := env.DocNames(p, nil), []string{"last", "first"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	env.AssertDocsDense(p)
}

func TestLegacyDocumentHasNoOrder(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	ordered := env.CreateDoc(p, "ordered", nil)

	legacy, err := env.Store.CreateLegacyDocument(env.Ctx, p.ID, "notes/ch1.md", "Chapter 1", "hello")
	if err != nil {
		t.Fatalf("CreateLegacyDocument failed: %v", err)
	}
	got, err := env.Store.GetDocument(env.Ctx, legacy.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.SortOrder != nil {
		t.Errorf("legacy sort order = %d, want nil", *got.SortOrder)
	}
	if got.Path != "notes/ch1.md" || got.Text != "hello" {
		t.Errorf("legacy document = %+v", got)
	}

	if err := env.Store.ReorderDocument(env.Ctx, legacy.ID, types.DirectionUp); !storage.IsValidation(err) {
		t.Errorf("reordering a legacy document: error = %v, want validation", err)
	}

	// A new ordered document still appends after the existing ordered one.
	next := env.CreateDoc(p, "next", nil)
	if *next.SortOrder != *ordered.SortOrder+1 {
		t.Errorf("next order = %d, want %d", *next.SortOrder, *ordered.SortOrder+1)
	}
}

func TestUpdateDocument(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	d := env.CreateDoc(p, "Ch1", nil)

	updated, err := env.Store.UpdateDocument(env.Ctx, d.ID, types.DocumentUpdate{
		Text:  types.StringPtr("It was a dark night."),
		Notes: types.StringPtr("tighten"),
	})
	if err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}
	if updated.Name != "Ch1" || updated.Text != "It was a dark night." || updated.Notes != "tighten" {
		t.Errorf("updated = %+v", updated)
	}

	if err := env.Store.RenameDocument(env.Ctx, d.ID, ""); !storage.IsValidation(err) {
		t.Errorf("rename to empty: error = %v, want validation", err)
	}
	if err := env.Store.UpdateDocumentText(env.Ctx, 9999, "x"); !storage.IsNotFound(err) {
		t.Errorf("UpdateDocumentText(missing) error = %v, want not found", err)
	}
}

func TestMoveDocumentToForeignGroup(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	other := env.CreateProject("Other")
	foreign := env.CreateGroup(other, "Elsewhere", nil)
	d := env.CreateDoc(p, "Ch1", nil)

	if err := env.Store.MoveDocumentToGroup(env.Ctx, d.ID, &foreign.ID); !storage.IsNotFound(err) {
		t.Errorf("move into foreign group: error = %v, want not found", err)
	}
	if got := env.DocOrder(d.ID); got != 0 {
		t.Errorf("failed move changed order to %d", got)
	}
}
