package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/untoldecay/cora/internal/export"
	"github.com/untoldecay/cora/internal/storage/sqlite"
	"github.com/untoldecay/cora/internal/types"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStorage {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// must unwraps a (value, error) pair in test setup, panicking on error.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// describeProject renders a project as sorted lines that depend only on
// names, content and structure, never on ids.
func describeProject(t *testing.T, store *sqlite.SQLiteStorage, projectID int64) []string {
	t.Helper()
	ctx := context.Background()

	p := must(store.GetProject(ctx, projectID))
	lines := []string{fmt.Sprintf("project %s desc=%q notes=%q", p.Name, p.Desc, p.Notes)}
	if tl, err := store.GetTimelineByEntity(ctx, types.TimelineProject, p.ID); err == nil {
		lines = append(lines, fmt.Sprintf("project timeline %s..%s", tl.StartDate, tl.EndDate))
	}

	names := map[types.LinkKind]map[int64]string{
		types.LinkCharacter: {},
		types.LinkEvent:     {},
		types.LinkPlace:     {},
	}
	for _, c := range must(store.ListCharacters(ctx, p.ID)) {
		names[types.LinkCharacter][c.ID] = c.Name
		lines = append(lines, fmt.Sprintf("character %s %q", c.Name, c.Desc))
	}
	for _, e := range must(store.ListEvents(ctx, p.ID)) {
		names[types.LinkEvent][e.ID] = e.Name
		lines = append(lines, fmt.Sprintf("event %s %q %s..%s", e.Name, e.Desc, e.StartDate, e.EndDate))
	}
	for _, pl := range must(store.ListPlaces(ctx, p.ID)) {
		names[types.LinkPlace][pl.ID] = pl.Name
		lines = append(lines, fmt.Sprintf("place %s %q", pl.Name, pl.Desc))
	}

	groups := must(store.ListGroups(ctx, p.ID))
	byID := make(map[int64]*types.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	var pathOf func(id *int64) string
	pathOf = func(id *int64) string {
		if id == nil {
			return ""
		}
		g := byID[*id]
		return pathOf(g.ParentID) + fmt.Sprintf("/%d:%s", g.SortOrder, g.Name)
	}
	linked := func(kind types.LinkKind, ids []int64) string {
		var out []string
		for _, id := range ids {
			out = append(out, names[kind][id])
		}
		sort.Strings(out)
		return string(kind) + "=" + strings.Join(out, ",")
	}

	for _, g := range groups {
		line := fmt.Sprintf("group %s notes=%q", pathOf(&g.ID), g.Notes)
		for _, kind := range types.LinkKinds {
			line += " " + linked(kind, must(store.ListForGroup(ctx, kind, g.ID)))
		}
		lines = append(lines, line)
	}

	for _, d := range must(store.ListDocuments(ctx, p.ID)) {
		order := "-"
		if d.SortOrder != nil {
			order = fmt.Sprint(*d.SortOrder)
		}
		line := fmt.Sprintf("doc %s/%s:%s text=%q notes=%q", pathOf(d.GroupID), order, d.Name, d.Text, d.Notes)
		for _, kind := range types.LinkKinds {
			line += " " + linked(kind, must(store.ListForDocument(ctx, kind, d.ID)))
		}
		for _, dr := range must(store.ListDrafts(ctx, d.ID)) {
			line += fmt.Sprintf(" draft[%s %q %s]", dr.Name, dr.Content, dr.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000"))
		}
		if tl, err := store.GetTimelineByEntity(ctx, types.TimelineDoc, d.ID); err == nil {
			line += fmt.Sprintf(" timeline=%s..%s", tl.StartDate, tl.EndDate)
		}
		lines = append(lines, line)
	}

	sort.Strings(lines)
	return lines
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	p := must(src.CreateProject(ctx, &types.Project{Name: "Saga", Desc: "a long one", Notes: "# Plan"}))
	partI := must(src.CreateGroup(ctx, p.ID, "Part I", nil))
	partII := must(src.CreateGroup(ctx, p.ID, "Part II", nil))
	ch1 := must(src.CreateGroup(ctx, p.ID, "Chapter 1", &partI.ID))
	ch2 := must(src.CreateGroup(ctx, p.ID, "Chapter 2", &partI.ID))
	if err := src.UpdateGroupNotes(ctx, ch2.ID, "needs work"); err != nil {
		t.Fatal(err)
	}
	// Reorder so the manifest's old orders differ from creation order.
	if err := src.ReorderGroup(ctx, ch2.ID, types.DirectionUp); err != nil {
		t.Fatal(err)
	}

	opening := must(src.CreateDocument(ctx, p.ID, "Opening", &ch1.ID))
	second := must(src.CreateDocument(ctx, p.ID, "Second", &ch1.ID))
	finale := must(src.CreateDocument(ctx, p.ID, "Finale", &partII.ID))
	loose := must(src.CreateDocument(ctx, p.ID, "Loose note", nil))
	if err := src.ReorderDocument(ctx, second.ID, types.DirectionUp); err != nil {
		t.Fatal(err)
	}
	for id, text := range map[int64]string{opening.ID: "Once.", second.ID: "Twice.", finale.ID: "The end.", loose.ID: "todo"} {
		if err := src.UpdateDocumentText(ctx, id, text); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.UpdateDocumentNotes(ctx, opening.ID, "voice?"); err != nil {
		t.Fatal(err)
	}
	must(src.CreateDraft(ctx, opening.ID, "v1", "Once upon."))
	must(src.CreateDraft(ctx, opening.ID, "v2", "Once upon a time."))

	alice := must(src.CreateCharacter(ctx, p.ID, "Alice", "lead"))
	bob := must(src.CreateCharacter(ctx, p.ID, "Bob", ""))
	war := must(src.CreateEvent(ctx, &types.Event{ProjectID: p.ID, Name: "War", StartDate: "1914", EndDate: "1918"}))
	city := must(src.CreatePlace(ctx, p.ID, "City", "grey"))

	attach := []struct {
		kind     types.LinkKind
		doc, ent int64
	}{
		{types.LinkCharacter, opening.ID, alice.ID},
		{types.LinkCharacter, opening.ID, bob.ID},
		{types.LinkEvent, finale.ID, war.ID},
		{types.LinkPlace, second.ID, city.ID},
	}
	for _, a := range attach {
		if err := src.AttachToDocument(ctx, a.kind, a.doc, a.ent); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.AttachToGroup(ctx, types.LinkCharacter, ch1.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	must(src.CreateTimeline(ctx, &types.Timeline{EntityType: types.TimelineProject, EntityID: p.ID, StartDate: "1900", EndDate: "1950"}))
	must(src.CreateTimeline(ctx, &types.Timeline{EntityType: types.TimelineDoc, EntityID: finale.ID, StartDate: "1918-11-11"}))

	root, err := export.NewExporter(src, nil, nil).Export(ctx, p.ID, t.TempDir())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := newTestStore(t)
	res, err := NewImporter(dst, nil).ImportProject(ctx, root)
	if err != nil {
		t.Fatalf("ImportProject failed: %v", err)
	}
	if res.Strategy != StrategyManifest {
		t.Fatalf("strategy = %s, want manifest", res.Strategy)
	}
	if res.Groups != 4 || res.Documents != 4 || res.Drafts != 2 || res.SkippedLinks != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Project.Path != root {
		t.Errorf("project path = %q, want %q", res.Project.Path, root)
	}

	want := describeProject(t, src, p.ID)
	got := describeProject(t, dst, res.Project.ID)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\ngot:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestImportManifestSkipsDanglingLinks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Book")
	writeFile(t, filepath.Join(dir, "metadata.json"), `{
		"meta": {"app": "cora", "version": 1, "exported_at": "2024-01-01T00:00:00Z"},
		"project": {"id": 7, "name": "Book"},
		"groups": [{"id": 3, "project_id": 7, "name": "Orphan", "parent_id": 99, "sort_order": 0}],
		"docs": [
			{"id": 10, "project_id": 7, "name": "Filed", "text": "a", "doc_group_id": 3, "sort_order": 0},
			{"id": 11, "project_id": 7, "name": "Lost", "text": "b", "doc_group_id": 42, "sort_order": 0}
		],
		"characters": [{"id": 1, "project_id": 7, "name": "Ann"}],
		"events": null,
		"places": null,
		"doc_characters": {"10": [1, 2], "77": [1]},
		"doc_events": {"10": [5]},
		"doc_places": {},
		"project_timeline": null,
		"doc_timelines": {"10": null, "55": {"entity_type": "doc", "entity_id": 55, "start_date": "x"}},
		"drafts_by_doc": {"11": [{"id": 1, "doc_id": 11, "name": "old", "content": "c", "created_at": "2024-04-01 09:00:00", "updated_at": ""}]}
	}`)

	ctx := context.Background()
	store := newTestStore(t)
	res, err := NewImporter(store, nil).ImportProject(ctx, dir)
	if err != nil {
		t.Fatalf("ImportProject failed: %v", err)
	}
	if res.Strategy != StrategyManifest {
		t.Fatalf("strategy = %s", res.Strategy)
	}
	// 77 is a missing doc, 2 a missing character, 5 a missing event.
	if res.SkippedLinks != 3 {
		t.Errorf("skipped links = %d, want 3", res.SkippedLinks)
	}

	got := describeProject(t, store, res.Project.ID)
	want := []string{
		`character Ann ""`,
		`doc /0:Lost text="b" notes="" character= event= place= draft[old "c" 2024-04-01T09:00:00.000000]`,
		`doc /0:Orphan/0:Filed text="a" notes="" character=Ann event= place=`,
		`group /0:Orphan notes="" character= event= place=`,
		`project Book desc="" notes=""`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("import mismatch\ngot:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestImportLegacyLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "My Novel")
	writeFile(t, filepath.Join(dir, "b chapters", "2.txt"), "two")
	writeFile(t, filepath.Join(dir, "b chapters", "1.TXT"), "one")
	writeFile(t, filepath.Join(dir, "b chapters", "notes.md"), "ignored")
	writeFile(t, filepath.Join(dir, "b chapters", "deep", "x.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "A part", "z.txt"), "zed")
	writeFile(t, filepath.Join(dir, "loose.txt"), "loose")
	writeFile(t, filepath.Join(dir, "cover.png"), "")

	ctx := context.Background()
	store := newTestStore(t)
	res, err := NewImporter(store, nil).ImportProject(ctx, dir)
	if err != nil {
		t.Fatalf("ImportProject failed: %v", err)
	}
	if res.Strategy != StrategyLegacy {
		t.Errorf("strategy = %s, want legacy", res.Strategy)
	}
	if res.Project.Name != "My Novel" {
		t.Errorf("project name = %q", res.Project.Name)
	}
	if res.Groups != 3 || res.Documents != 4 {
		t.Errorf("result = %+v", res)
	}

	got := describeProject(t, store, res.Project.ID)
	want := []string{
		`doc /0:A part/0:z text="zed" notes="" character= event= place=`,
		`doc /1:b chapters/0:1 text="one" notes="" character= event= place=`,
		`doc /1:b chapters/1:2 text="two" notes="" character= event= place=`,
		`doc /2:UNSORTED/0:loose text="loose" notes="" character= event= place=`,
		`group /0:A part notes="" character= event= place=`,
		`group /1:b chapters notes="" character= event= place=`,
		`group /2:UNSORTED notes="" character= event= place=`,
		`project My Novel desc="" notes=""`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("legacy import mismatch\ngot:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestImportLegacyFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "outside")
	writeFile(t, filepath.Join(outside, "shared", "s.txt"), "shared")
	writeFile(t, filepath.Join(outside, "extra.txt"), "extra")

	dir := filepath.Join(root, "Book")
	writeFile(t, filepath.Join(dir, "Part", "a.txt"), "A")
	links := map[string]string{
		filepath.Join(dir, "Linked"):        filepath.Join(outside, "shared"),
		filepath.Join(dir, "Part", "b.txt"): filepath.Join(outside, "extra.txt"),
		filepath.Join(dir, "gone.txt"):      filepath.Join(outside, "missing.txt"),
	}
	for link, target := range links {
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
	}

	store := newTestStore(t)
	res, err := NewImporter(store, nil).ImportProject(context.Background(), dir)
	if err != nil {
		t.Fatalf("ImportProject failed: %v", err)
	}
	if res.Groups != 2 || res.Documents != 3 {
		t.Errorf("result = %+v", res)
	}

	got := describeProject(t, store, res.Project.ID)
	want := []string{
		`doc /0:Linked/0:s text="shared" notes="" character= event= place=`,
		`doc /1:Part/0:a text="A" notes="" character= event= place=`,
		`doc /1:Part/1:b text="extra" notes="" character= event= place=`,
		`group /0:Linked notes="" character= event= place=`,
		`group /1:Part notes="" character= event= place=`,
		`project Book desc="" notes=""`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("symlinked import mismatch\ngot:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestImportFallsBackToLegacy(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"foreign app", `{"meta": {"app": "someone-else", "version": 1}, "project": {"name": "Nope"}}`},
		{"malformed", `{"meta": {"app": "cora"`},
		{"wrong type", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "Folder")
			writeFile(t, filepath.Join(dir, "metadata.json"), tt.manifest)
			writeFile(t, filepath.Join(dir, "Part", "a.txt"), "A")

			store := newTestStore(t)
			res, err := NewImporter(store, nil).ImportProject(context.Background(), dir)
			if err != nil {
				t.Fatalf("ImportProject failed: %v", err)
			}
			if res.Strategy != StrategyLegacy {
				t.Errorf("strategy = %s, want legacy", res.Strategy)
			}
			if res.Project.Name != "Folder" || res.Groups != 1 || res.Documents != 1 {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestImportProjectRejectsNonDirectory(t *testing.T) {
	store := newTestStore(t)
	im := NewImporter(store, nil)

	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file, "x")
	if _, err := im.ImportProject(context.Background(), file); err == nil {
		t.Error("expected error for a file")
	}
	if _, err := im.ImportProject(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing folder")
	}
	if projects := must(store.ListProjects(context.Background())); len(projects) != 0 {
		t.Errorf("failed imports created %d projects", len(projects))
	}
}

func TestImportPaths(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p := must(store.CreateProject(ctx, &types.Project{Name: "Book"}))
	target := must(store.CreateGroup(ctx, p.ID, "Inbox", nil))

	base := t.TempDir()
	folder := filepath.Join(base, "Extra")
	writeFile(t, filepath.Join(folder, "b.txt"), "bee")
	writeFile(t, filepath.Join(folder, "a.txt"), "ay")
	writeFile(t, filepath.Join(folder, "sub", "c.txt"), "nested")
	loose := filepath.Join(base, "loose.TXT")
	writeFile(t, loose, "L")
	image := filepath.Join(base, "image.png")
	writeFile(t, image, "")

	n, err := NewImporter(store, nil).ImportPaths(ctx, p.ID, &target.ID, []string{folder, loose, image})
	if err != nil {
		t.Fatalf("ImportPaths failed: %v", err)
	}
	if n != 3 {
		t.Errorf("imported %d documents, want 3", n)
	}

	got := describeProject(t, store, p.ID)
	want := []string{
		`doc /0:Inbox/0:loose text="L" notes="" character= event= place=`,
		`doc /1:Extra/0:a text="ay" notes="" character= event= place=`,
		`doc /1:Extra/1:b text="bee" notes="" character= event= place=`,
		`group /0:Inbox notes="" character= event= place=`,
		`group /1:Extra notes="" character= event= place=`,
		`project Book desc="" notes=""`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("bulk import mismatch\ngot:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestImportPathsValidatesTargets(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p := must(store.CreateProject(ctx, &types.Project{Name: "Book"}))
	other := must(store.CreateProject(ctx, &types.Project{Name: "Other"}))
	foreign := must(store.CreateGroup(ctx, other.ID, "Elsewhere", nil))
	im := NewImporter(store, nil)

	if _, err := im.ImportPaths(ctx, 999, nil, nil); err == nil {
		t.Error("expected error for missing project")
	}
	if _, err := im.ImportPaths(ctx, p.ID, &foreign.ID, nil); err == nil {
		t.Error("expected error for a group of another project")
	}
	if _, err := im.ImportPaths(ctx, p.ID, nil, []string{filepath.Join(t.TempDir(), "gone.txt")}); err == nil {
		t.Error("expected error for a missing path")
	}
}

func TestNewerVersion(t *testing.T) {
	tests := []struct {
		written, running string
		want             bool
	}{
		{"1.2.0", "1.1.0", true},
		{"v1.1.0", "1.1.0", false},
		{"1.0.0", "v1.1.0", false},
		{"", "1.0.0", false},
		{"2.0.0", "dev", false},
		{"garbage", "1.0.0", false},
	}
	for _, tt := range tests {
		if got := newerVersion(tt.written, tt.running); got != tt.want {
			t.Errorf("newerVersion(%q, %q) = %v, want %v", tt.written, tt.running, got, tt.want)
		}
	}
}
