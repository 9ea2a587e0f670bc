package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

const projectDraftColumns = `id, project_id, name, content, created_at, updated_at`

// CreateProjectDraft stores a new project-level draft.
func (s *SQLiteStorage) CreateProjectDraft(ctx context.Context, projectID int64, name, content string) (*types.ProjectDraft, error) {
	if err := requireProject(ctx, s.db, projectID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO project_drafts (project_id, name, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, projectID, name, content, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert project draft: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get project draft id: %w", err)
	}
	return &types.ProjectDraft{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetProjectDraft retrieves a project draft by id.
func (s *SQLiteStorage) GetProjectDraft(ctx context.Context, id int64) (*types.ProjectDraft, error) {
	return getProjectDraft(ctx, s.db, id)
}

func getProjectDraft(ctx context.Context, q dbtx, id int64) (*types.ProjectDraft, error) {
	row := q.QueryRowContext(ctx, `SELECT `+projectDraftColumns+` FROM project_drafts WHERE id = ?`, id)
	d, err := scanProjectDraft(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get project draft %d", id), err)
	}
	return d, nil
}

// ListProjectDrafts returns a project's drafts, most recently updated first.
func (s *SQLiteStorage) ListProjectDrafts(ctx context.Context, projectID int64) ([]*types.ProjectDraft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectDraftColumns+` FROM project_drafts
		WHERE project_id = ?
		ORDER BY updated_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*types.ProjectDraft
	for rows.Next() {
		d, err := scanProjectDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// UpdateProjectDraft applies the non-nil fields of update and bumps updated_at.
func (s *SQLiteStorage) UpdateProjectDraft(ctx context.Context, id int64, update types.DraftUpdate) (*types.ProjectDraft, error) {
	var out *types.ProjectDraft
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getProjectDraft(ctx, conn, id)
		if err != nil {
			return err
		}
		if update.Name != nil {
			d.Name = *update.Name
		}
		if update.Content != nil {
			d.Content = *update.Content
		}
		d.UpdatedAt = time.Now().UTC()
		_, err = conn.ExecContext(ctx, `UPDATE project_drafts SET name = ?, content = ?, updated_at = ? WHERE id = ?`,
			d.Name, d.Content, formatTime(d.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update project draft: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}

// DeleteProjectDraft removes one project draft.
func (s *SQLiteStorage) DeleteProjectDraft(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project draft %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteAllProjectDrafts removes every draft of a project.
func (s *SQLiteStorage) DeleteAllProjectDrafts(ctx context.Context, projectID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM project_drafts WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete project drafts: %w", err)
	}
	return nil
}

func scanProjectDraft(row rowScanner) (*types.ProjectDraft, error) {
	var d types.ProjectDraft
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Name, &d.Content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}
