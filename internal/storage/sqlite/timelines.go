package sqlite

import (
	"context"
	"fmt"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

const timelineColumns = `id, entity_type, entity_id, start_date, end_date`

// CreateTimeline stores a timeline for (EntityType, EntityID). An existing
// timeline for the same key is updated in place.
func (s *SQLiteStorage) CreateTimeline(ctx context.Context, tl *types.Timeline) (*types.Timeline, error) {
	if tl == nil {
		return nil, fmt.Errorf("timeline is nil: %w", storage.ErrValidation)
	}
	if err := validation.TimelineEntity(tl.EntityType); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timelines (entity_type, entity_id, start_date, end_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
		    start_date = excluded.start_date,
		    end_date = excluded.end_date
	`, string(tl.EntityType), tl.EntityID, tl.StartDate, tl.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert timeline: %w", err)
	}
	return s.GetTimelineByEntity(ctx, tl.EntityType, tl.EntityID)
}

// GetTimeline retrieves a timeline by id.
func (s *SQLiteStorage) GetTimeline(ctx context.Context, id int64) (*types.Timeline, error) {
	tl, err := scanTimeline(s.db.QueryRowContext(ctx, `SELECT `+timelineColumns+` FROM timelines WHERE id = ?`, id))
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get timeline %d", id), err)
	}
	return tl, nil
}

// GetTimelineByEntity retrieves the timeline attached to an entity.
func (s *SQLiteStorage) GetTimelineByEntity(ctx context.Context, entityType types.TimelineEntity, entityID int64) (*types.Timeline, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+timelineColumns+` FROM timelines WHERE entity_type = ? AND entity_id = ?
	`, string(entityType), entityID)
	tl, err := scanTimeline(row)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get %s timeline %d", entityType, entityID), err)
	}
	return tl, nil
}

// ListTimelines returns every stored timeline in id order.
func (s *SQLiteStorage) ListTimelines(ctx context.Context) ([]*types.Timeline, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+timelineColumns+` FROM timelines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list timelines: %w", err)
	}
	defer rows.Close()

	var timelines []*types.Timeline
	for rows.Next() {
		tl, err := scanTimeline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline: %w", err)
		}
		timelines = append(timelines, tl)
	}
	return timelines, rows.Err()
}

// UpdateTimeline applies the non-nil fields of update.
func (s *SQLiteStorage) UpdateTimeline(ctx context.Context, id int64, update types.TimelineUpdate) (*types.Timeline, error) {
	tl, err := s.GetTimeline(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.StartDate != nil {
		tl.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		tl.EndDate = *update.EndDate
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE timelines SET start_date = ?, end_date = ? WHERE id = ?`,
		tl.StartDate, tl.EndDate, id); err != nil {
		return nil, fmt.Errorf("failed to update timeline: %w", err)
	}
	return tl, nil
}

// DeleteTimeline removes a timeline by id.
func (s *SQLiteStorage) DeleteTimeline(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete timeline: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("timeline %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// DeleteTimelineByEntity removes the timeline attached to an entity, if any.
func (s *SQLiteStorage) DeleteTimelineByEntity(ctx context.Context, entityType types.TimelineEntity, entityID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM timelines WHERE entity_type = ? AND entity_id = ?`,
		string(entityType), entityID)
	if err != nil {
		return fmt.Errorf("failed to delete timeline: %w", err)
	}
	return nil
}

func scanTimeline(row rowScanner) (*types.Timeline, error) {
	var tl types.Timeline
	var entityType string
	if err := row.Scan(&tl.ID, &entityType, &tl.EntityID, &tl.StartDate, &tl.EndDate); err != nil {
		return nil, err
	}
	tl.EntityType = types.TimelineEntity(entityType)
	return &tl, nil
}
