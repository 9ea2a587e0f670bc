package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

// Characters

// CreateCharacter adds a character to a project.
func (s *SQLiteStorage) CreateCharacter(ctx context.Context, projectID int64, name, desc string) (*types.Character, error) {
	id, err := s.insertNamed(ctx, "characters", "character", projectID, name, desc)
	if err != nil {
		return nil, err
	}
	return &types.Character{ID: id, ProjectID: projectID, Name: name, Desc: desc}, nil
}

// GetCharacter retrieves a character by id.
func (s *SQLiteStorage) GetCharacter(ctx context.Context, id int64) (*types.Character, error) {
	var c types.Character
	err := s.db.QueryRowContext(ctx, `SELECT id, project_id, name, description FROM characters WHERE id = ?`, id).
		Scan(&c.ID, &c.ProjectID, &c.Name, &c.Desc)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get character %d", id), err)
	}
	return &c, nil
}

// ListCharacters returns a project's characters ordered by name.
func (s *SQLiteStorage) ListCharacters(ctx context.Context, projectID int64) ([]*types.Character, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, description FROM characters
		WHERE project_id = ? ORDER BY name COLLATE NOCASE, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var out []*types.Character
	for rows.Next() {
		var c types.Character
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Desc); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpdateCharacter applies the non-nil fields of update.
func (s *SQLiteStorage) UpdateCharacter(ctx context.Context, id int64, update types.CharacterUpdate) (*types.Character, error) {
	c, err := s.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if err := validation.Name("character", *update.Name); err != nil {
			return nil, err
		}
		c.Name = *update.Name
	}
	if update.Desc != nil {
		c.Desc = *update.Desc
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE characters SET name = ?, description = ? WHERE id = ?`, c.Name, c.Desc, id); err != nil {
		return nil, fmt.Errorf("failed to update character: %w", err)
	}
	return c, nil
}

// DeleteCharacter removes a character and its links.
func (s *SQLiteStorage) DeleteCharacter(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "characters", "character", id)
}

// Places

// CreatePlace adds a place to a project.
func (s *SQLiteStorage) CreatePlace(ctx context.Context, projectID int64, name, desc string) (*types.Place, error) {
	id, err := s.insertNamed(ctx, "places", "place", projectID, name, desc)
	if err != nil {
		return nil, err
	}
	return &types.Place{ID: id, ProjectID: projectID, Name: name, Desc: desc}, nil
}

// GetPlace retrieves a place by id.
func (s *SQLiteStorage) GetPlace(ctx context.Context, id int64) (*types.Place, error) {
	var p types.Place
	err := s.db.QueryRowContext(ctx, `SELECT id, project_id, name, description FROM places WHERE id = ?`, id).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.Desc)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get place %d", id), err)
	}
	return &p, nil
}

// ListPlaces returns a project's places ordered by name.
func (s *SQLiteStorage) ListPlaces(ctx context.Context, projectID int64) ([]*types.Place, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, description FROM places
		WHERE project_id = ? ORDER BY name COLLATE NOCASE, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	var out []*types.Place
	for rows.Next() {
		var p types.Place
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Desc); err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// UpdatePlace applies the non-nil fields of update.
func (s *SQLiteStorage) UpdatePlace(ctx context.Context, id int64, update types.PlaceUpdate) (*types.Place, error) {
	p, err := s.GetPlace(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if err := validation.Name("place", *update.Name); err != nil {
			return nil, err
		}
		p.Name = *update.Name
	}
	if update.Desc != nil {
		p.Desc = *update.Desc
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE places SET name = ?, description = ? WHERE id = ?`, p.Name, p.Desc, id); err != nil {
		return nil, fmt.Errorf("failed to update place: %w", err)
	}
	return p, nil
}

// DeletePlace removes a place and its links.
func (s *SQLiteStorage) DeletePlace(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "places", "place", id)
}

// Events

const eventColumns = `id, project_id, name, description, date, start_date, end_date`

// CreateEvent adds an event to its project.
func (s *SQLiteStorage) CreateEvent(ctx context.Context, event *types.Event) (*types.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("event is nil: %w", storage.ErrValidation)
	}
	if err := validation.Name("event", event.Name); err != nil {
		return nil, err
	}
	if err := requireProject(ctx, s.db, event.ProjectID); err != nil {
		return nil, err
	}

	e := *event
	if e.StartDate == "" {
		e.StartDate = e.Date
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (project_id, name, description, date, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ProjectID, e.Name, e.Desc, e.Date, e.StartDate, e.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to get event id: %w", err)
	}
	return &e, nil
}

// GetEvent retrieves an event by id.
func (s *SQLiteStorage) GetEvent(ctx context.Context, id int64) (*types.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get event %d", id), err)
	}
	return e, nil
}

// ListEvents returns a project's events in creation order.
func (s *SQLiteStorage) ListEvents(ctx context.Context, projectID int64) ([]*types.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEvent applies the non-nil fields of update.
func (s *SQLiteStorage) UpdateEvent(ctx context.Context, id int64, update types.EventUpdate) (*types.Event, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if err := validation.Name("event", *update.Name); err != nil {
			return nil, err
		}
		e.Name = *update.Name
	}
	if update.Desc != nil {
		e.Desc = *update.Desc
	}
	if update.Date != nil {
		e.Date = *update.Date
	}
	if update.StartDate != nil {
		e.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		e.EndDate = *update.EndDate
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE events SET name = ?, description = ?, date = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`, e.Name, e.Desc, e.Date, e.StartDate, e.EndDate, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return e, nil
}

// DeleteEvent removes an event, its links and its timeline.
func (s *SQLiteStorage) DeleteEvent(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, `DELETE FROM timelines WHERE entity_type = 'event' AND entity_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete event timeline: %w", err)
		}
		res, err := conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("event %d: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

func scanEvent(row rowScanner) (*types.Event, error) {
	var e types.Event
	if err := row.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Desc, &e.Date, &e.StartDate, &e.EndDate); err != nil {
		return nil, err
	}
	return &e, nil
}

// insertNamed inserts a (project_id, name, description) row into table.
func (s *SQLiteStorage) insertNamed(ctx context.Context, table, kind string, projectID int64, name, desc string) (int64, error) {
	if err := validation.Name(kind, name); err != nil {
		return 0, err
	}
	if err := requireProject(ctx, s.db, projectID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (project_id, name, description) VALUES (?, ?, ?)`,
		projectID, name, desc)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get %s id: %w", kind, err)
	}
	return id, nil
}

func (s *SQLiteStorage) deleteByID(ctx context.Context, table, kind string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
