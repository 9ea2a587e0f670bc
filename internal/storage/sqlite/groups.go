package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

const groupColumns = `id, project_id, name, parent_id, sort_order, notes`

// CreateGroup appends a group at the end of its sibling set.
func (s *SQLiteStorage) CreateGroup(ctx context.Context, projectID int64, name string, parentID *int64) (*types.Group, error) {
	if err := validation.Name("group", name); err != nil {
		return nil, err
	}

	var g *types.Group
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if err := checkGroupParent(ctx, conn, projectID, parentID); err != nil {
			return err
		}
		order, err := nextGroupOrder(ctx, conn, projectID, parentID)
		if err != nil {
			return err
		}
		g, err = insertGroup(ctx, conn, projectID, name, parentID, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("created group", "id", g.ID, "parent", describeParent(parentID), "order", g.SortOrder)
	return g, nil
}

// CreateGroupAfter inserts a group directly below the sibling at afterOrder,
// shifting every later sibling down by one first.
func (s *SQLiteStorage) CreateGroupAfter(ctx context.Context, projectID int64, name string, parentID *int64, afterOrder int64) (*types.Group, error) {
	if err := validation.Name("group", name); err != nil {
		return nil, err
	}

	var g *types.Group
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if err := checkGroupParent(ctx, conn, projectID, parentID); err != nil {
			return err
		}

		// Clamp so the new slot never leaves a hole past the end.
		next, err := nextGroupOrder(ctx, conn, projectID, parentID)
		if err != nil {
			return err
		}
		order := afterOrder + 1
		if order > next {
			order = next
		}
		if order < 0 {
			order = 0
		}

		_, err = conn.ExecContext(ctx, `
			UPDATE doc_groups SET sort_order = sort_order + 1
			WHERE project_id = ? AND parent_id IS ? AND sort_order >= ?
		`, projectID, nullID(parentID), order)
		if err != nil {
			return fmt.Errorf("failed to shift sibling groups: %w", err)
		}

		g, err = insertGroup(ctx, conn, projectID, name, parentID, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup retrieves a group by id.
func (s *SQLiteStorage) GetGroup(ctx context.Context, id int64) (*types.Group, error) {
	return getGroup(ctx, s.db, id)
}

func getGroup(ctx context.Context, q dbtx, id int64) (*types.Group, error) {
	row := q.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM doc_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get group %d", id), err)
	}
	return g, nil
}

// ListGroups returns every group of a project, roots first, then by parent
// and sort order. Callers rebuild the forest from parent links.
func (s *SQLiteStorage) ListGroups(ctx context.Context, projectID int64) ([]*types.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+groupColumns+` FROM doc_groups
		WHERE project_id = ?
		ORDER BY parent_id IS NOT NULL, parent_id, sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*types.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group (descendant groups and their documents go with
// it) and closes the gap in its sibling set.
func (s *SQLiteStorage) DeleteGroup(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		g, err := getGroup(ctx, conn, id)
		if err != nil {
			return err
		}

		if err := deleteGroupTimelines(ctx, conn, id); err != nil {
			return err
		}

		if _, err := conn.ExecContext(ctx, `DELETE FROM doc_groups WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}

		_, err = conn.ExecContext(ctx, `
			UPDATE doc_groups SET sort_order = sort_order - 1
			WHERE project_id = ? AND parent_id IS ? AND sort_order > ?
		`, g.ProjectID, nullID(g.ParentID), g.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to close sibling gap: %w", err)
		}
		return nil
	})
}

// deleteGroupTimelines clears timelines of the group subtree and its
// documents before the cascade removes the rows they point at.
func deleteGroupTimelines(ctx context.Context, conn *sql.Conn, id int64) error {
	_, err := conn.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
		    SELECT ?
		    UNION ALL
		    SELECT g.id FROM doc_groups g JOIN subtree s ON g.parent_id = s.id
		)
		DELETE FROM timelines WHERE
		    (entity_type = 'folder' AND entity_id IN (SELECT id FROM subtree))
		 OR (entity_type = 'doc' AND entity_id IN (
		        SELECT id FROM docs WHERE doc_group_id IN (SELECT id FROM subtree)))
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group timelines: %w", err)
	}
	return nil
}

// ReorderGroup swaps the group with its neighbour in the given direction.
// Moving the first group up or the last group down changes nothing.
func (s *SQLiteStorage) ReorderGroup(ctx context.Context, id int64, dir types.Direction) error {
	if err := validation.Direction(dir); err != nil {
		return err
	}

	return s.withTx(ctx, func(conn *sql.Conn) error {
		g, err := getGroup(ctx, conn, id)
		if err != nil {
			return err
		}

		target := g.SortOrder + dir.Delta()
		res, err := conn.ExecContext(ctx, `
			UPDATE doc_groups SET sort_order = ?
			WHERE project_id = ? AND parent_id IS ? AND sort_order = ? AND id != ?
		`, g.SortOrder, g.ProjectID, nullID(g.ParentID), target, id)
		if err != nil {
			return fmt.Errorf("failed to swap sibling group: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Nobody at the target slot: the group keeps its place.
			target = g.SortOrder
		}

		if _, err := conn.ExecContext(ctx, `UPDATE doc_groups SET sort_order = ? WHERE id = ?`, target, id); err != nil {
			return fmt.Errorf("failed to reorder group: %w", err)
		}
		return nil
	})
}

// RenameGroup sets a group's name.
func (s *SQLiteStorage) RenameGroup(ctx context.Context, id int64, name string) error {
	if err := validation.Name("group", name); err != nil {
		return err
	}
	return s.updateGroupColumn(ctx, id, "name", name)
}

// UpdateGroupNotes replaces a group's notes.
func (s *SQLiteStorage) UpdateGroupNotes(ctx context.Context, id int64, notes string) error {
	return s.updateGroupColumn(ctx, id, "notes", notes)
}

func (s *SQLiteStorage) updateGroupColumn(ctx context.Context, id int64, column, value string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE doc_groups SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("failed to update group %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// checkGroupParent verifies the project exists and, when set, that the
// parent group belongs to it.
func checkGroupParent(ctx context.Context, q dbtx, projectID int64, parentID *int64) error {
	if err := requireProject(ctx, q, projectID); err != nil {
		return err
	}
	if parentID == nil {
		return nil
	}
	parent, err := getGroup(ctx, q, *parentID)
	if err != nil {
		return err
	}
	if parent.ProjectID != projectID {
		return fmt.Errorf("parent group %d in project %d: %w", *parentID, projectID, storage.ErrNotFound)
	}
	return nil
}

func nextGroupOrder(ctx context.Context, q dbtx, projectID int64, parentID *int64) (int64, error) {
	var next int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort_order), -1) + 1 FROM doc_groups
		WHERE project_id = ? AND parent_id IS ?
	`, projectID, nullID(parentID)).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next group order: %w", err)
	}
	return next, nil
}

func insertGroup(ctx context.Context, q dbtx, projectID int64, name string, parentID *int64, order int64) (*types.Group, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO doc_groups (project_id, name, parent_id, sort_order)
		VALUES (?, ?, ?, ?)
	`, projectID, name, nullID(parentID), order)
	if err != nil {
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get group id: %w", err)
	}
	return &types.Group{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		ParentID:  idPtr(nullID(parentID)),
		SortOrder: order,
	}, nil
}

func scanGroup(row rowScanner) (*types.Group, error) {
	var g types.Group
	var parent sql.NullInt64
	if err := row.Scan(&g.ID, &g.ProjectID, &g.Name, &parent, &g.SortOrder, &g.Notes); err != nil {
		return nil, err
	}
	g.ParentID = idPtr(parent)
	return &g, nil
}
