package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

const projectColumns = `id, name, description, path, notes, created_at, updated_at`

// CreateProject inserts a new project. Zero timestamps are set to now.
func (s *SQLiteStorage) CreateProject(ctx context.Context, project *types.Project) (*types.Project, error) {
	if project == nil {
		return nil, fmt.Errorf("project is nil: %w", storage.ErrValidation)
	}
	if err := validation.Name("project", project.Name); err != nil {
		return nil, err
	}

	p := *project
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, path, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Name, p.Desc, p.Path, p.Notes, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get project id: %w", err)
	}
	return &p, nil
}

// GetProject retrieves a project by id.
func (s *SQLiteStorage) GetProject(ctx context.Context, id int64) (*types.Project, error) {
	return getProject(ctx, s.db, id)
}

func getProject(ctx context.Context, q dbtx, id int64) (*types.Project, error) {
	row := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get project %d", id), err)
	}
	return p, nil
}

// ListProjects returns every project ordered by name.
func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*types.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject applies the non-nil fields of update and bumps updated_at.
func (s *SQLiteStorage) UpdateProject(ctx context.Context, id int64, update types.ProjectUpdate) (*types.Project, error) {
	if update.Name != nil {
		if err := validation.Name("project", *update.Name); err != nil {
			return nil, err
		}
	}

	var out *types.Project
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		p, err := getProject(ctx, conn, id)
		if err != nil {
			return err
		}
		if update.IsEmpty() {
			out = p
			return nil
		}
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Desc != nil {
			p.Desc = *update.Desc
		}
		if update.Path != nil {
			p.Path = *update.Path
		}
		if update.Notes != nil {
			p.Notes = *update.Notes
		}
		p.UpdatedAt = time.Now().UTC()

		_, err = conn.ExecContext(ctx, `
			UPDATE projects SET name = ?, description = ?, path = ?, notes = ?, updated_at = ?
			WHERE id = ?
		`, p.Name, p.Desc, p.Path, p.Notes, formatTime(p.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		out = p
		return nil
	})
	return out, err
}

// DeleteProject removes a project and, through cascades, everything in it.
// Timelines are keyed loosely by entity id, so they are cleared explicitly.
func (s *SQLiteStorage) DeleteProject(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		if _, err := getProject(ctx, conn, id); err != nil {
			return err
		}

		_, err := conn.ExecContext(ctx, `
			DELETE FROM timelines WHERE
			    (entity_type = 'project' AND entity_id = ?1)
			 OR (entity_type = 'doc' AND entity_id IN (SELECT id FROM docs WHERE project_id = ?1))
			 OR (entity_type = 'folder' AND entity_id IN (SELECT id FROM doc_groups WHERE project_id = ?1))
			 OR (entity_type = 'event' AND entity_id IN (SELECT id FROM events WHERE project_id = ?1))
		`, id)
		if err != nil {
			return fmt.Errorf("failed to delete project timelines: %w", err)
		}

		if _, err := conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

// requireProject returns ErrNotFound unless the project exists.
func requireProject(ctx context.Context, q dbtx, id int64) error {
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return fmt.Errorf("project %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*types.Project, error) {
	var p types.Project
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Desc, &p.Path, &p.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}
