package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/cora/internal/types"
)

// UnsortedGroup collects .txt files found directly in a legacy folder root.
const UnsortedGroup = "UNSORTED"

// importLegacy builds a project from the folder layout: every immediate
// subdirectory becomes a root group holding its immediate .txt files, and
// root-level .txt files go last into an UNSORTED group. Deeper folders are
// ignored.
func (im *Importer) importLegacy(ctx context.Context, folder string) (*Result, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read import folder: %w", err)
	}
	dirs, files := partitionEntries(folder, entries)

	abs, err := filepath.Abs(folder)
	if err != nil {
		abs = folder
	}
	project, err := im.store.CreateProject(ctx, &types.Project{
		Name: nameOr(filepath.Base(abs)),
		Path: folder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	res := &Result{Project: project, Strategy: StrategyLegacy}
	im.logger.Info("importing project from folder layout", "project", project.Name, "folder", folder)

	for _, dir := range dirs {
		n, err := im.importFolderAsGroup(ctx, project.ID, filepath.Join(folder, dir.Name()), dir.Name())
		if err != nil {
			return res, err
		}
		res.Groups++
		res.Documents += n
	}

	if len(files) > 0 {
		group, err := im.store.CreateGroup(ctx, project.ID, UnsortedGroup, nil)
		if err != nil {
			return res, fmt.Errorf("failed to create %s group: %w", UnsortedGroup, err)
		}
		res.Groups++
		for _, f := range files {
			if err := im.importTextFile(ctx, project.ID, &group.ID, filepath.Join(folder, f.Name())); err != nil {
				return res, err
			}
			res.Documents++
		}
	}
	return res, nil
}

// importFolderAsGroup creates a root group named name holding the immediate
// .txt files of dir, and returns how many documents it created.
func (im *Importer) importFolderAsGroup(ctx context.Context, projectID int64, dir, name string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}
	_, files := partitionEntries(dir, entries)

	group, err := im.store.CreateGroup(ctx, projectID, nameOr(name), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create group %q: %w", name, err)
	}
	im.logger.Debug("imported folder as group", "folder", dir, "group", group.ID, "files", len(files))

	for i, f := range files {
		if err := im.importTextFile(ctx, projectID, &group.ID, filepath.Join(dir, f.Name())); err != nil {
			return i, err
		}
	}
	return len(files), nil
}

// importTextFile appends a document named after the file stem.
func (im *Importer) importTextFile(ctx context.Context, projectID int64, groupID *int64, path string) error {
	// #nosec G304 - path comes from a directory listing the user asked to import
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := im.store.CreateDocument(ctx, projectID, nameOr(stem(filepath.Base(path))), groupID)
	if err != nil {
		return fmt.Errorf("failed to create document for %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := im.store.UpdateDocumentText(ctx, doc.ID, string(data)); err != nil {
			return err
		}
	}
	return nil
}
