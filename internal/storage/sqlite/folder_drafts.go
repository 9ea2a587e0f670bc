package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

const folderDraftColumns = `id, doc_group_id, name, content, sort_order, created_at, updated_at`

// CreateFolderDraft appends a draft at the end of a group's draft list.
func (s *SQLiteStorage) CreateFolderDraft(ctx context.Context, groupID int64, name, content string) (*types.FolderDraft, error) {
	var d *types.FolderDraft
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if _, err := getGroup(ctx, conn, groupID); err != nil {
			return err
		}
		order, err := nextFolderDraftOrder(ctx, conn, groupID)
		if err != nil {
			return err
		}
		d, err = insertFolderDraft(ctx, conn, groupID, name, content, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CreateFolderDraftAt inserts a draft at index, shifting later drafts down.
// An index past the end appends.
func (s *SQLiteStorage) CreateFolderDraftAt(ctx context.Context, groupID int64, name, content string, index int64) (*types.FolderDraft, error) {
	var d *types.FolderDraft
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		if _, err := getGroup(ctx, conn, groupID); err != nil {
			return err
		}
		next, err := nextFolderDraftOrder(ctx, conn, groupID)
		if err != nil {
			return err
		}
		order := min(max(index, 0), next)

		_, err = conn.ExecContext(ctx, `
			UPDATE folder_drafts SET sort_order = sort_order + 1
			WHERE doc_group_id = ? AND sort_order >= ?
		`, groupID, order)
		if err != nil {
			return fmt.Errorf("failed to shift folder drafts: %w", err)
		}

		d, err = insertFolderDraft(ctx, conn, groupID, name, content, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetFolderDraft retrieves a folder draft by id.
func (s *SQLiteStorage) GetFolderDraft(ctx context.Context, id int64) (*types.FolderDraft, error) {
	return getFolderDraft(ctx, s.db, id)
}

func getFolderDraft(ctx context.Context, q dbtx, id int64) (*types.FolderDraft, error) {
	row := q.QueryRowContext(ctx, `SELECT `+folderDraftColumns+` FROM folder_drafts WHERE id = ?`, id)
	d, err := scanFolderDraft(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get folder draft %d", id), err)
	}
	return d, nil
}

// ListFolderDrafts returns a group's drafts in sort order.
func (s *SQLiteStorage) ListFolderDrafts(ctx context.Context, groupID int64) ([]*types.FolderDraft, error) {
	return listFolderDrafts(ctx, s.db, groupID)
}

func listFolderDrafts(ctx context.Context, q dbtx, groupID int64) ([]*types.FolderDraft, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+folderDraftColumns+` FROM folder_drafts
		WHERE doc_group_id = ?
		ORDER BY sort_order, id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*types.FolderDraft
	for rows.Next() {
		d, err := scanFolderDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// UpdateFolderDraft applies the non-nil fields of update and bumps updated_at.
// The draft keeps its position.
func (s *SQLiteStorage) UpdateFolderDraft(ctx context.Context, id int64, update types.DraftUpdate) (*types.FolderDraft, error) {
	var out *types.FolderDraft
	err := s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getFolderDraft(ctx, conn, id)
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
		_, err = conn.ExecContext(ctx, `UPDATE folder_drafts SET name = ?, content = ?, updated_at = ? WHERE id = ?`,
			d.Name, d.Content, formatTime(d.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update folder draft: %w", err)
		}
		out = d
		return nil
	})
	return out, err
}

// DeleteFolderDraft removes one folder draft and closes the gap it leaves.
func (s *SQLiteStorage) DeleteFolderDraft(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getFolderDraft(ctx, conn, id)
		if err != nil {
			return err
		}
		if _, err := conn.ExecContext(ctx, `DELETE FROM folder_drafts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete folder draft: %w", err)
		}
		_, err = conn.ExecContext(ctx, `
			UPDATE folder_drafts SET sort_order = sort_order - 1
			WHERE doc_group_id = ? AND sort_order > ?
		`, d.GroupID, d.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to close folder draft gap: %w", err)
		}
		return nil
	})
}

// DeleteAllFolderDrafts removes every draft of a group.
func (s *SQLiteStorage) DeleteAllFolderDrafts(ctx context.Context, groupID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM folder_drafts WHERE doc_group_id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete folder drafts: %w", err)
	}
	return nil
}

// ReorderFolderDraft swaps the draft with its neighbour in the given
// direction. The first draft moving up or the last moving down stays put.
func (s *SQLiteStorage) ReorderFolderDraft(ctx context.Context, id int64, dir types.Direction) error {
	if err := validation.Direction(dir); err != nil {
		return err
	}

	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getFolderDraft(ctx, conn, id)
		if err != nil {
			return err
		}

		target := d.SortOrder + dir.Delta()
		res, err := conn.ExecContext(ctx, `
			UPDATE folder_drafts SET sort_order = ?
			WHERE doc_group_id = ? AND sort_order = ? AND id != ?
		`, d.SortOrder, d.GroupID, target, id)
		if err != nil {
			return fmt.Errorf("failed to swap folder draft: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			target = d.SortOrder
		}

		if _, err := conn.ExecContext(ctx, `UPDATE folder_drafts SET sort_order = ? WHERE id = ?`, target, id); err != nil {
			return fmt.Errorf("failed to reorder folder draft: %w", err)
		}
		return nil
	})
}

// MoveFolderDraft places the draft at index within its group and renumbers
// the whole list 0..n-1. An index past the end moves it last.
func (s *SQLiteStorage) MoveFolderDraft(ctx context.Context, id int64, index int64) error {
	if index < 0 {
		return fmt.Errorf("folder draft index %d: %w", index, storage.ErrValidation)
	}

	return s.withTx(ctx, func(conn *sql.Conn) error {
		d, err := getFolderDraft(ctx, conn, id)
		if err != nil {
			return err
		}
		drafts, err := listFolderDrafts(ctx, conn, d.GroupID)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(drafts))
		for _, other := range drafts {
			if other.ID != id {
				ids = append(ids, other.ID)
			}
		}
		at := min(int(index), len(ids))
		ids = slices.Insert(ids, at, id)

		for i, draftID := range ids {
			if _, err := conn.ExecContext(ctx, `UPDATE folder_drafts SET sort_order = ? WHERE id = ?`, i, draftID); err != nil {
				return fmt.Errorf("failed to renumber folder drafts: %w", err)
			}
		}
		return nil
	})
}

func nextFolderDraftOrder(ctx context.Context, q dbtx, groupID int64) (int64, error) {
	var next int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sort_order), -1) + 1 FROM folder_drafts WHERE doc_group_id = ?
	`, groupID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next folder draft order: %w", err)
	}
	return next, nil
}

func insertFolderDraft(ctx context.Context, q dbtx, groupID int64, name, content string, order int64) (*types.FolderDraft, error) {
	now := time.Now().UTC()
	res, err := q.ExecContext(ctx, `
		INSERT INTO folder_drafts (doc_group_id, name, content, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, groupID, name, content, order, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert folder draft: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get folder draft id: %w", err)
	}
	return &types.FolderDraft{
		ID:        id,
		GroupID:   groupID,
		Name:      name,
		Content:   content,
		SortOrder: order,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func scanFolderDraft(row rowScanner) (*types.FolderDraft, error) {
	var d types.FolderDraft
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.GroupID, &d.Name, &d.Content, &d.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}
