package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ImportPaths imports loose paths into an existing project. A directory
// becomes a new root group with its immediate .txt files; a .txt file
// becomes a document in targetGroup (nil for unfiled). Anything else is
// skipped. It returns how many documents were created.
func (im *Importer) ImportPaths(ctx context.Context, projectID int64, targetGroup *int64, paths []string) (int, error) {
	if _, err := im.store.GetProject(ctx, projectID); err != nil {
		return 0, err
	}
	if targetGroup != nil {
		g, err := im.store.GetGroup(ctx, *targetGroup)
		if err != nil {
			return 0, err
		}
		if g.ProjectID != projectID {
			return 0, fmt.Errorf("group %d belongs to another project", g.ID)
		}
	}

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return count, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		switch {
		case info.IsDir():
			n, err := im.importFolderAsGroup(ctx, projectID, path, filepath.Base(filepath.Clean(path)))
			count += n
			if err != nil {
				return count, err
			}
		case info.Mode().IsRegular() && isTextFile(path):
			if err := im.importTextFile(ctx, projectID, targetGroup, path); err != nil {
				return count, err
			}
			count++
		default:
			im.logger.Debug("skipping non-text path", "path", path)
		}
	}
	return count, nil
}
