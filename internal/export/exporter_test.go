package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/untoldecay/cora/internal/manifest"
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

// listTree returns every file and directory under root, relative and sorted.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			rel += "/"
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	sort.Strings(out)
	return out
}

func TestExportLayout(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p, err := store.CreateProject(ctx, &types.Project{Name: "Book"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	part, _ := store.CreateGroup(ctx, p.ID, "Part", nil)
	sub, _ := store.CreateGroup(ctx, p.ID, "Sub: one", &part.ID)
	second, _ := store.CreateGroup(ctx, p.ID, "Second", nil)
	doc1, _ := store.CreateDocument(ctx, p.ID, "Doc1", &part.ID)
	doc2, _ := store.CreateDocument(ctx, p.ID, "Doc2", &part.ID)
	if _, err := store.CreateDocument(ctx, p.ID, "Deep", &sub.ID); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if _, err := store.CreateDocument(ctx, p.ID, "Opening", &second.ID); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if _, err := store.CreateDocument(ctx, p.ID, "Loose", nil); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if err := store.UpdateDocumentText(ctx, doc1.ID, "It begins."); err != nil {
		t.Fatalf("UpdateDocumentText failed: %v", err)
	}
	if err := store.UpdateDocumentText(ctx, doc2.ID, "It ends."); err != nil {
		t.Fatalf("UpdateDocumentText failed: %v", err)
	}
	if _, err := store.CreateDraft(ctx, doc1.ID, "first", "It began."); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	dest := t.TempDir()
	root, err := NewExporter(store, nil, nil).Export(ctx, p.ID, dest)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if root != filepath.Join(dest, "Book") {
		t.Errorf("root = %q", root)
	}

	want := []string{
		"1 Part/",
		"1 Part/1 Sub_ one/",
		"1 Part/1 Sub_ one/1.1 Deep.txt",
		"1 Part/1.1 Doc1 draft-1.txt",
		"1 Part/1.1 Doc1.txt",
		"1 Part/1.2 Doc2.txt",
		"2 Second/",
		"2 Second/2.1 Opening.txt",
		"metadata.json",
	}
	got := listTree(t, root)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("tree:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	text, err := os.ReadFile(filepath.Join(root, "1 Part", "1.1 Doc1.txt"))
	if err != nil || string(text) != "It begins." {
		t.Errorf("Doc1 text = %q, %v", text, err)
	}
	draft, err := os.ReadFile(filepath.Join(root, "1 Part", "1.1 Doc1 draft-1.txt"))
	if err != nil || string(draft) != "It began." {
		t.Errorf("Doc1 draft = %q, %v", draft, err)
	}

	m, err := manifest.ReadFile(filepath.Join(root, manifest.FileName))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if _, err := uuid.Parse(m.Meta.ExportID); err != nil {
		t.Errorf("export_id %q is not a uuid: %v", m.Meta.ExportID, err)
	}
	if len(m.Docs) != 5 || len(m.Groups) != 3 {
		t.Errorf("manifest has %d docs, %d groups", len(m.Docs), len(m.Groups))
	}
	if len(m.DraftsByDoc) != 1 || len(m.DraftsByDoc[manifest.Key(doc1.ID)]) != 1 {
		t.Errorf("drafts_by_doc = %v", m.DraftsByDoc)
	}
	if _, ok := m.DocTimelines[manifest.Key(doc2.ID)]; !ok {
		t.Errorf("doc_timelines should list every document")
	}
}

func TestExportPicksUniqueRoot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p, err := store.CreateProject(ctx, &types.Project{Name: "Book"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	dest := t.TempDir()
	exp := NewExporter(store, nil, nil)
	for _, want := range []string{"Book", "Book export 2", "Book export 3"} {
		root, err := exp.Export(ctx, p.ID, dest)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if filepath.Base(root) != want {
			t.Errorf("root = %q, want %q", filepath.Base(root), want)
		}
	}
}

func TestExportWithoutDraftsOrManifest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p, _ := store.CreateProject(ctx, &types.Project{Name: "Book"})
	g, _ := store.CreateGroup(ctx, p.ID, "Part", nil)
	d, _ := store.CreateDocument(ctx, p.ID, "Doc", &g.ID)
	if _, err := store.CreateDraft(ctx, d.ID, "x", "y"); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	if err := SetWriteDrafts(ctx, store, false); err != nil {
		t.Fatalf("SetWriteDrafts failed: %v", err)
	}
	if err := SetWriteManifest(ctx, store, false); err != nil {
		t.Fatalf("SetWriteManifest failed: %v", err)
	}
	cfg, err := LoadConfig(ctx, store)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	root, err := NewExporter(store, cfg, nil).Export(ctx, p.ID, t.TempDir())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	want := []string{"1 Part/", "1 Part/1.1 Doc.txt"}
	if got := listTree(t, root); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("tree = %v, want %v", got, want)
	}
}

func TestExportMissingProject(t *testing.T) {
	store := newTestStore(t)
	if _, err := NewExporter(store, nil, nil).Export(context.Background(), 42, t.TempDir()); err == nil {
		t.Error("expected error for missing project")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Chapter 1", "Chapter 1"},
		{"  padded  ", "padded"},
		{"", Untitled},
		{"   ", Untitled},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"Où? Là!", "Où_ Là!"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueRootExhausted(t *testing.T) {
	dest := t.TempDir()
	for _, name := range []string{"Book", "Book export 2", "Book export 3"} {
		if err := os.Mkdir(filepath.Join(dest, name), 0o750); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := UniqueRoot(dest, "Book", 3); !errors.Is(err, ErrNoUniqueName) {
		t.Errorf("UniqueRoot error = %v, want ErrNoUniqueName", err)
	}
	got, err := UniqueRoot(dest, "Book", 4)
	if err != nil {
		t.Fatalf("UniqueRoot failed: %v", err)
	}
	if filepath.Base(got) != "Book export 4" {
		t.Errorf("UniqueRoot = %q", got)
	}
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	cfg, err := LoadConfig(ctx, store)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("defaults = %+v", cfg)
	}

	if err := SetUniqueAttempts(ctx, store, 5); err != nil {
		t.Fatalf("SetUniqueAttempts failed: %v", err)
	}
	if err := SetIndent(ctx, store, 0); err != nil {
		t.Fatalf("SetIndent failed: %v", err)
	}
	if err := store.SetConfig(ctx, ConfigKeyWriteDrafts, "not-a-bool"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	cfg, err = LoadConfig(ctx, store)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.UniqueAttempts != 5 || cfg.Indent != "" || !cfg.WriteDrafts {
		t.Errorf("cfg = %+v", cfg)
	}

	if err := SetUniqueAttempts(ctx, store, 0); err == nil {
		t.Error("expected error for zero attempts")
	}
}
