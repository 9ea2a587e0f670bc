package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
)

const draftColumns = `id, doc_id, name, content, created_at, updated_at`

// CreateDraft snapshots content as a new draft of a document.
func (s *SQLiteStorage) CreateDraft(ctx context.Context, documentID int64, name, content string) (*types.Draft, error) {
	now := time.Now().UTC()
	return importDraft(ctx, s.db, &types.Draft{
		DocumentID: documentID,
		Name:       name,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// ImportDraft inserts a draft keeping its timestamps (zero values become now).
func (s *SQLiteStorage) ImportDraft(ctx context.Context, draft *types.Draft) (*types.Draft, error) {
	return importDraft(ctx, s.db, draft)
}

func importDraft(ctx context.Context, q dbtx, draft *types.Draft) (*types.Draft, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft is nil: %w", storage.ErrValidation)
	}
	if _, err := getDocument(ctx, q, draft.DocumentID); err != nil {
		return nil, err
	}

	d := *draft
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO drafts (doc_id, name, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.DocumentID, d.Name, d.Content, formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert draft: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft id: %w", err)
	}
	return &d, nil
}

// GetDraft retrieves a draft by id.
func (s *SQLiteStorage) GetDraft(ctx context.Context, id int64) (*types.Draft, error) {
	return getDraft(ctx, s.db, id)
}

func getDraft(ctx context.Context, q dbtx, id int64) (*types.Draft, error) {
	row := q.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get draft %d", id), err)
	}
	return d, nil
}

// ListDrafts returns a document's drafts, most recent first.
func (s *SQLiteStorage) ListDrafts(ctx context.Context, documentID int64) ([]*types.Draft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+draftColumns+` FROM drafts
		WHERE doc_id = ?
		ORDER BY created_at DESC, id DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*types.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// UpdateDraft applies the non-nil fields of update and bumps updated_at.
func (s *SQLiteStorage) UpdateDraft(ctx context.Context, id int64, update types.DraftUpdate) (*types.Draft, error) {
	var out *types.Draft
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getDraft(ctx, conn, id)
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
		_, err = conn.ExecContext(ctx, `UPDATE drafts SET name = ?, content = ?, updated_at = ? WHERE id = ?`,
			d.Name, d.Content, formatTime(d.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update draft: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}

// DeleteDraft removes one draft.
func (s *SQLiteStorage) DeleteDraft(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("draft %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteAllDrafts removes every draft of a document.
func (s *SQLiteStorage) DeleteAllDrafts(ctx context.Context, documentID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE doc_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to delete drafts: %w", err)
	}
	return nil
}

// RestoreDraft copies a draft's content back into its document's text.
func (s *SQLiteStorage) RestoreDraft(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getDraft(ctx, conn, id)
		if err != nil {
			return err
		}
		res, err := conn.ExecContext(ctx, `UPDATE docs SET text = ? WHERE id = ?`, d.Content, d.DocumentID)
		if err != nil {
			return fmt.Errorf("failed to restore draft: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("document %d: %w", d.DocumentID, storage.ErrNotFound)
		}
		return nil
	})
}

func scanDraft(row rowScanner) (*types.Draft, error) {
	var d types.Draft
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.DocumentID, &d.Name, &d.Content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}
