package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateDropOrphanLinks removes rows whose parents no longer exist.
// Databases written while foreign keys were disabled can carry such rows;
// the deletes mirror what ON DELETE CASCADE would have done.
func MigrateDropOrphanLinks(db *sql.DB) error {
	// Nested orphans surface one level per pass.
	for {
		res, err := db.Exec(`
			DELETE FROM doc_groups
			WHERE parent_id IS NOT NULL AND parent_id NOT IN (SELECT id FROM doc_groups)
		`)
		if err != nil {
			return fmt.Errorf("failed to drop orphaned groups: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			break
		}
	}

	stmts := []string{
		`DELETE FROM doc_groups WHERE project_id NOT IN (SELECT id FROM projects)`,
		`DELETE FROM docs WHERE project_id NOT IN (SELECT id FROM projects)`,
		`DELETE FROM docs WHERE doc_group_id IS NOT NULL AND doc_group_id NOT IN (SELECT id FROM doc_groups)`,
		`DELETE FROM drafts WHERE doc_id NOT IN (SELECT id FROM docs)`,
		`DELETE FROM doc_characters WHERE doc_id NOT IN (SELECT id FROM docs) OR character_id NOT IN (SELECT id FROM characters)`,
		`DELETE FROM doc_events WHERE doc_id NOT IN (SELECT id FROM docs) OR event_id NOT IN (SELECT id FROM events)`,
		`DELETE FROM doc_places WHERE doc_id NOT IN (SELECT id FROM docs) OR place_id NOT IN (SELECT id FROM places)`,
		`DELETE FROM doc_group_characters WHERE doc_group_id NOT IN (SELECT id FROM doc_groups) OR character_id NOT IN (SELECT id FROM characters)`,
		`DELETE FROM doc_group_events WHERE doc_group_id NOT IN (SELECT id FROM doc_groups) OR event_id NOT IN (SELECT id FROM events)`,
		`DELETE FROM doc_group_places WHERE doc_group_id NOT IN (SELECT id FROM doc_groups) OR place_id NOT IN (SELECT id FROM places)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to drop orphaned rows: %w", err)
		}
	}
	return nil
}
