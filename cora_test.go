package cora

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestPublicRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStorage(ctx, filepath.Join(dir, "cora.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	p, err := s.CreateProject(ctx, &Project{Name: "Book"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	g, err := s.CreateGroup(ctx, p.ID, "Part", nil)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := s.CreateDocument(ctx, p.ID, "Ch1", &g.ID); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	root, err := ExportProject(ctx, s, p.ID, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("ExportProject failed: %v", err)
	}
	res, err := ImportProject(ctx, s, root)
	if err != nil {
		t.Fatalf("ImportProject failed: %v", err)
	}
	if res.Groups != 1 || res.Documents != 1 {
		t.Errorf("imported %d groups, %d documents; want 1, 1", res.Groups, res.Documents)
	}

	if _, err := s.GetProject(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject(missing) error = %v, want ErrNotFound", err)
	}
}
