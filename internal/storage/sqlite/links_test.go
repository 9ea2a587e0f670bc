package sqlite

import (
	"reflect"
	"testing"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

func TestDocumentLinksIdempotent(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	d := env.CreateDoc(p, "Ch1", nil)
	alice, err := env.Store.CreateCharacter(env.Ctx, p.ID, "Alice", "")
	if err != nil {
		t.Fatalf("CreateCharacter failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.Store.AttachToDocument(env.Ctx, types.LinkCharacter, d.ID, alice.ID); err != nil {
			t.Fatalf("AttachToDocument #%d failed: %v", i+1, err)
		}
	}
	ids, err := env.Store.ListForDocument(env.Ctx, types.LinkCharacter, d.ID)
	if err != nil {
		t.Fatalf("ListForDocument failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{alice.ID}) {
		t.Errorf("linked = %v, want [%d]", ids, alice.ID)
	}

	for i := 0; i < 2; i++ {
		if err := env.Store.DetachFromDocument(env.Ctx, types.LinkCharacter, d.ID, alice.ID); err != nil {
			t.Errorf("DetachFromDocument #%d error = %v, want nil", i+1, err)
		}
	}
	ids, err = env.Store.ListForDocument(env.Ctx, types.LinkCharacter, d.ID)
	if err != nil {
		t.Fatalf("ListForDocument failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("linked after detach = %v, want none", ids)
	}
}

func TestGroupLinksAndProjectMaps(t *testing.T) {
	env := newTestEnv(t)
	p := env.CreateProject("Book")
	g := env.CreateGroup(p, "Part", nil)
	d1 := env.CreateDoc(p, "Ch1", g)
	d2 := env.CreateDoc(p, "Ch2", g)

	paris, err := env.Store.CreatePlace(env.Ctx, p.ID, "Paris", "")
	if err != nil {
		t.Fatalf("CreatePlace failed: %v", err)
	}
	war, err := env.Store.CreateEvent(env.Ctx, &types.Event{ProjectID: p.ID, Name: "War", Date: "1914"})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	mustAttach := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("attach failed: %v", err)
		}
	}
	mustAttach(env.Store.AttachToDocument(env.Ctx, types.LinkPlace, d1.ID, paris.ID))
	mustAttach(env.Store.AttachToDocument(env.Ctx, types.LinkPlace, d2.ID, paris.ID))
	mustAttach(env.Store.AttachToGroup(env.Ctx, types.LinkEvent, g.ID, war.ID))

	docPlaces, err := env.Store.ListDocumentLinks(env.Ctx, types.LinkPlace, p.ID)
	if err != nil {
		t.Fatalf("ListDocumentLinks failed: %v", err)
	}
	want := map[int64][]int64{d1.ID: {paris.ID}, d2.ID: {paris.ID}}
	if !reflect.DeepEqual(docPlaces, want) {
		t.Errorf("doc places = %v, want %v", docPlaces, want)
	}

	groupEvents, err := env.Store.ListGroupLinks(env.Ctx, types.LinkEvent, p.ID)
	if err != nil {
		t.Fatalf("ListGroupLinks failed: %v", err)
	}
	if !reflect.DeepEqual(groupEvents, map[int64][]int64{g.ID: {war.ID}}) {
		t.Errorf("group events = %v", groupEvents)
	}

	// Deleting the entity removes its links.
	if err := env.Store.DeleteEvent(env.Ctx, war.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	ids, err := env.Store.ListForGroup(env.Ctx, types.LinkEvent, g.ID)
	if err != nil {
		t.Fatalf("ListForGroup failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("group events after delete = %v", ids)
	}

	if err := env.Store.AttachToGroup(env.Ctx, types.LinkKind("weapon"), g.ID, 1); !storage.IsValidation(err) {
		t.Errorf("unknown link kind error = %v, want validation", err)
	}
}
