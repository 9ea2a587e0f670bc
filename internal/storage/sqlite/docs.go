package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

const docColumns = `id, project_id, doc_group_id, sort_order, name, text, notes, path`

// CreateDocument appends a document at the end of its group (or of the
// project's unfiled documents when groupID is nil).
func (s *SQLiteStorage) CreateDocument(ctx context.Context, projectID int64, name string, groupID *int64) (*types.Document, error) {
	if err := validation.Name("document", name); err != nil {
		return nil, err
	}

	var d *types.Document
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		var err error
		d, err = createDocument(ctx, conn, projectID, name, groupID)
		return err
	})
	return d, err
}

func createDocument(ctx context.Context, q dbtx, projectID int64, name string, groupID *int64) (*types.Document, error) {
	if err := checkDocumentGroup(ctx, q, projectID, groupID); err != nil {
		return nil, err
	}
	order, err := nextDocumentOrder(ctx, q, projectID, groupID)
	if err != nil {
		return nil, err
	}
	return insertDocument(ctx, q, projectID, name, groupID, order)
}

// CreateDocumentAfter inserts a document directly below the sibling at
// afterOrder, shifting every later sibling down by one first.
func (s *SQLiteStorage) CreateDocumentAfter(ctx context.Context, projectID int64, name string, groupID *int64, afterOrder int64) (*types.Document, error) {
	if err := validation.Name("document", name); err != nil {
		return nil, err
	}

	var d *types.Document
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if err := checkDocumentGroup(ctx, conn, projectID, groupID); err != nil {
			return err
		}

		next, err := nextDocumentOrder(ctx, conn, projectID, groupID)
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
			UPDATE docs SET sort_order = sort_order + 1
			WHERE project_id = ? AND doc_group_id IS ? AND sort_order >= ?
		`, projectID, nullID(groupID), order)
		if err != nil {
			return fmt.Errorf("failed to shift sibling documents: %w", err)
		}

		d, err = insertDocument(ctx, conn, projectID, name, groupID, order)
		return err
	})
	return d, err
}

// CreateLegacyDocument creates an unfiled document addressed by a free-form
// path. It has no sort order and never takes part in sibling ordering.
func (s *SQLiteStorage) CreateLegacyDocument(ctx context.Context, projectID int64, path, name, text string) (*types.Document, error) {
	if err := requireProject(ctx, s.db, projectID); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO docs (project_id, path, name, text) VALUES (?, ?, ?, ?)
	`, projectID, path, name, text)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get document id: %w", err)
	}
	return &types.Document{ID: id, ProjectID: projectID, Name: name, Text: text, Path: path}, nil
}

// GetDocument retrieves a document by id.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	return getDocument(ctx, s.db, id)
}

func getDocument(ctx context.Context, q dbtx, id int64) (*types.Document, error) {
	row := q.QueryRowContext(ctx, `SELECT `+docColumns+` FROM docs WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get document %d", id), err)
	}
	return d, nil
}

// ListDocuments returns every document of a project, unfiled first, then by
// group and sort order. Legacy documents without an order come last in
// their set.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, projectID int64) ([]*types.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+docColumns+` FROM docs
		WHERE project_id = ?
		ORDER BY doc_group_id IS NOT NULL, doc_group_id, sort_order IS NULL, sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*types.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocument applies the non-nil fields of update.
func (s *SQLiteStorage) UpdateDocument(ctx context.Context, id int64, update types.DocumentUpdate) (*types.Document, error) {
	if update.Name != nil {
		if err := validation.Name("document", *update.Name); err != nil {
			return nil, err
		}
	}
	var d *types.Document
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		var err error
		d, err = updateDocument(ctx, conn, id, update)
		return err
	})
	return d, err
}

func updateDocument(ctx context.Context, q dbtx, id int64, update types.DocumentUpdate) (*types.Document, error) {
	d, err := getDocument(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return d, nil
	}
	if update.Name != nil {
		d.Name = *update.Name
	}
	if update.Text != nil {
		d.Text = *update.Text
	}
	if update.Notes != nil {
		d.Notes = *update.Notes
	}
	_, err = q.ExecContext(ctx, `UPDATE docs SET name = ?, text = ?, notes = ? WHERE id = ?`,
		d.Name, d.Text, d.Notes, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return d, nil
}

// UpdateDocumentText replaces a document's text.
func (s *SQLiteStorage) UpdateDocumentText(ctx context.Context, id int64, text string) error {
	return s.updateDocumentColumn(ctx, id, "text", text)
}

// UpdateDocumentNotes replaces a document's notes.
func (s *SQLiteStorage) UpdateDocumentNotes(ctx context.Context, id int64, notes string) error {
	return s.updateDocumentColumn(ctx, id, "notes", notes)
}

// RenameDocument sets a document's name.
func (s *SQLiteStorage) RenameDocument(ctx context.Context, id int64, name string) error {
	if err := validation.Name("document", name); err != nil {
		return err
	}
	return s.updateDocumentColumn(ctx, id, "name", name)
}

func (s *SQLiteStorage) updateDocumentColumn(ctx context.Context, id int64, column, value string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE docs SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteDocument removes a document (drafts and links cascade) and closes
// the gap in its sibling set.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getDocument(ctx, conn, id)
		if err != nil {
			return err
		}

		if _, err := conn.ExecContext(ctx, `DELETE FROM timelines WHERE entity_type = 'doc' AND entity_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete document timeline: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}

		if d.SortOrder == nil {
			return nil
		}
		return closeDocumentGap(ctx, conn, d.ProjectID, d.GroupID, *d.SortOrder)
	})
}

// ReorderDocument swaps the document with its neighbour in the given
// direction. Moving the first document up or the last one down changes
// nothing.
func (s *SQLiteStorage) ReorderDocument(ctx context.Context, id int64, dir types.Direction) error {
	if err := validation.Direction(dir); err != nil {
		return err
	}

	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getDocument(ctx, conn, id)
		if err != nil {
			return err
		}
		if d.SortOrder == nil {
			return fmt.Errorf("document %d has no sort order: %w", id, storage.ErrValidation)
		}

		current := *d.SortOrder
		target := current + dir.Delta()
		res, err := conn.ExecContext(ctx, `
			UPDATE docs SET sort_order = ?
			WHERE project_id = ? AND doc_group_id IS ? AND sort_order = ? AND id != ?
		`, current, d.ProjectID, nullID(d.GroupID), target, id)
		if err != nil {
			return fmt.Errorf("failed to swap sibling document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			target = current
		}

		if _, err := conn.ExecContext(ctx, `UPDATE docs SET sort_order = ? WHERE id = ?`, target, id); err != nil {
			return fmt.Errorf("failed to reorder document: %w", err)
		}
		return nil
	})
}

// MoveDocumentToGroup appends a document to the end of another group (nil
// for unfiled) and closes the gap it leaves behind.
func (s *SQLiteStorage) MoveDocumentToGroup(ctx context.Context, id int64, groupID *int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getDocument(ctx, conn, id)
		if err != nil {
			return err
		}
		if err := checkDocumentGroup(ctx, conn, d.ProjectID, groupID); err != nil {
			return err
		}

		next, err := nextDocumentOrder(ctx, conn, d.ProjectID, groupID)
		if err != nil {
			return err
		}
		if types.EqualIDPtr(d.GroupID, groupID) && d.SortOrder != nil {
			// Re-appending within the same set: the document leaves its slot first.
			next--
		}

		_, err = conn.ExecContext(ctx, `UPDATE docs SET doc_group_id = ?, sort_order = ? WHERE id = ?`,
			nullID(groupID), next, id)
		if err != nil {
			return fmt.Errorf("failed to move document: %w", err)
		}

		if d.SortOrder == nil {
			return nil
		}
		return closeDocumentGapExcept(ctx, conn, d.ProjectID, d.GroupID, *d.SortOrder, id)
	})
}

func closeDocumentGap(ctx context.Context, q dbtx, projectID int64, groupID *int64, order int64) error {
	return closeDocumentGapExcept(ctx, q, projectID, groupID, order, 0)
}

// closeDocumentGapExcept decrements every sibling after order, skipping
// the document with id except.
func closeDocumentGapExcept(ctx context.Context, q dbtx, projectID int64, groupID *int64, order, except int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE docs SET sort_order = sort_order - 1
		WHERE project_id = ? AND doc_group_id IS ? AND sort_order > ? AND id != ?
	`, projectID, nullID(groupID), order, except)
	if err != nil {
		return fmt.Errorf("failed to close sibling gap: %w", err)
	}
	return nil
}

// checkDocumentGroup verifies the project exists and, when set, that the
// group belongs to it.
func checkDocumentGroup(ctx context.Context, q dbtx, projectID int64, groupID *int64) error {
	if err := requireProject(ctx, q, projectID); err != nil {
		return err
	}
	if groupID == nil {
		return nil
	}
	g, err := getGroup(ctx, q, *groupID)
	if err != nil {
		return err
	}
	if g.ProjectID != projectID {
		return fmt.Errorf("group %d in project %d: %w", *groupID, projectID, storage.ErrNotFound)
	}
	return nil
}

func nextDocumentOrder(ctx context.Context, q dbtx, projectID int64, groupID *int64) (int64, error) {
	var next int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort_order), -1) + 1 FROM docs
		WHERE project_id = ? AND doc_group_id IS ?
	`, projectID, nullID(groupID)).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next document order: %w", err)
	}
	return next, nil
}

func insertDocument(ctx context.Context, q dbtx, projectID int64, name string, groupID *int64, order int64) (*types.Document, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO docs (project_id, name, doc_group_id, sort_order)
		VALUES (?, ?, ?, ?)
	`, projectID, name, nullID(groupID), order)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get document id: %w", err)
	}
	return &types.Document{
		ID:        id,
		ProjectID: projectID,
		GroupID:   idPtr(nullID(groupID)),
		SortOrder: types.Int64Ptr(order),
		Name:      name,
	}, nil
}

func scanDocument(row rowScanner) (*types.Document, error) {
	var d types.Document
	var group, order sql.NullInt64
	if err := row.Scan(&d.ID, &d.ProjectID, &group, &order, &d.Name, &d.Text, &d.Notes, &d.Path); err != nil {
		return nil, err
	}
	d.GroupID = idPtr(group)
	d.SortOrder = idPtr(order)
	return &d, nil
}
