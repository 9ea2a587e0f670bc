package sqlite

import (
	"context"
	"fmt"

	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

// linkTable names the relation table and its columns for one owner/kind pair.
type linkTable struct {
	table       string
	ownerColumn string
	itemColumn  string
	ownerTable  string
}

var entityColumns = map[types.LinkKind]string{
	types.LinkCharacter: "character_id",
	types.LinkEvent:     "event_id",
	types.LinkPlace:     "place_id",
}

var entityTables = map[types.LinkKind]string{
	types.LinkCharacter: "characters",
	types.LinkEvent:     "events",
	types.LinkPlace:     "places",
}

func docLinkTable(kind types.LinkKind) (linkTable, error) {
	if err := validation.LinkKind(kind); err != nil {
		return linkTable{}, err
	}
	return linkTable{
		table:       "doc_" + entityTables[kind],
		ownerColumn: "doc_id",
		itemColumn:  entityColumns[kind],
		ownerTable:  "docs",
	}, nil
}

func groupLinkTable(kind types.LinkKind) (linkTable, error) {
	if err := validation.LinkKind(kind); err != nil {
		return linkTable{}, err
	}
	return linkTable{
		table:       "doc_group_" + entityTables[kind],
		ownerColumn: "doc_group_id",
		itemColumn:  entityColumns[kind],
		ownerTable:  "doc_groups",
	}, nil
}

// AttachToDocument links an entity to a document. Attaching twice keeps one row.
func (s *SQLiteStorage) AttachToDocument(ctx context.Context, kind types.LinkKind, documentID, entityID int64) error {
	lt, err := docLinkTable(kind)
	if err != nil {
		return err
	}
	return s.attach(ctx, lt, documentID, entityID)
}

// DetachFromDocument unlinks an entity from a document. Absent links are ignored.
func (s *SQLiteStorage) DetachFromDocument(ctx context.Context, kind types.LinkKind, documentID, entityID int64) error {
	lt, err := docLinkTable(kind)
	if err != nil {
		return err
	}
	return s.detach(ctx, lt, documentID, entityID)
}

// ListForDocument returns the ids of entities of kind attached to a document.
func (s *SQLiteStorage) ListForDocument(ctx context.Context, kind types.LinkKind, documentID int64) ([]int64, error) {
	lt, err := docLinkTable(kind)
	if err != nil {
		return nil, err
	}
	return s.listFor(ctx, lt, documentID)
}

// AttachToGroup links an entity to a group. Attaching twice keeps one row.
func (s *SQLiteStorage) AttachToGroup(ctx context.Context, kind types.LinkKind, groupID, entityID int64) error {
	lt, err := groupLinkTable(kind)
	if err != nil {
		return err
	}
	return s.attach(ctx, lt, groupID, entityID)
}

// DetachFromGroup unlinks an entity from a group. Absent links are ignored.
func (s *SQLiteStorage) DetachFromGroup(ctx context.Context, kind types.LinkKind, groupID, entityID int64) error {
	lt, err := groupLinkTable(kind)
	if err != nil {
		return err
	}
	return s.detach(ctx, lt, groupID, entityID)
}

// ListForGroup returns the ids of entities of kind attached to a group.
func (s *SQLiteStorage) ListForGroup(ctx context.Context, kind types.LinkKind, groupID int64) ([]int64, error) {
	lt, err := groupLinkTable(kind)
	if err != nil {
		return nil, err
	}
	return s.listFor(ctx, lt, groupID)
}

// ListDocumentLinks returns document id -> entity ids for every document of a project.
func (s *SQLiteStorage) ListDocumentLinks(ctx context.Context, kind types.LinkKind, projectID int64) (map[int64][]int64, error) {
	lt, err := docLinkTable(kind)
	if err != nil {
		return nil, err
	}
	return s.listByProject(ctx, lt, projectID)
}

// ListGroupLinks returns group id -> entity ids for every group of a project.
func (s *SQLiteStorage) ListGroupLinks(ctx context.Context, kind types.LinkKind, projectID int64) (map[int64][]int64, error) {
	lt, err := groupLinkTable(kind)
	if err != nil {
		return nil, err
	}
	return s.listByProject(ctx, lt, projectID)
}

func (s *SQLiteStorage) attach(ctx context.Context, lt linkTable, ownerID, itemID int64) error {
	query := fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, %s) VALUES (?, ?)`, lt.table, lt.ownerColumn, lt.itemColumn)
	if _, err := s.db.ExecContext(ctx, query, ownerID, itemID); err != nil {
		return fmt.Errorf("failed to attach to %s: %w", lt.table, err)
	}
	return nil
}

func (s *SQLiteStorage) detach(ctx context.Context, lt linkTable, ownerID, itemID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, lt.table, lt.ownerColumn, lt.itemColumn)
	if _, err := s.db.ExecContext(ctx, query, ownerID, itemID); err != nil {
		return fmt.Errorf("failed to detach from %s: %w", lt.table, err)
	}
	return nil
}

func (s *SQLiteStorage) listFor(ctx context.Context, lt linkTable, ownerID int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY %s`, lt.itemColumn, lt.table, lt.ownerColumn, lt.itemColumn)
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", lt.table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", lt.table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) listByProject(ctx context.Context, lt linkTable, projectID int64) (map[int64][]int64, error) {
	query := fmt.Sprintf(`
		SELECT l.%[1]s, l.%[2]s FROM %[3]s l
		JOIN %[4]s o ON o.id = l.%[1]s
		WHERE o.project_id = ?
		ORDER BY l.%[1]s, l.%[2]s
	`, lt.ownerColumn, lt.itemColumn, lt.table, lt.ownerTable)
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", lt.table, err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var owner, item int64
		if err := rows.Scan(&owner, &item); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", lt.table, err)
		}
		out[owner] = append(out[owner], item)
	}
	return out, rows.Err()
}
