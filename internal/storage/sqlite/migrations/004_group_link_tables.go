package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateGroupLinkTables creates the group <-> character/event/place link tables.
func MigrateGroupLinkTables(db *sql.DB) error {
	tables := []struct {
		name, column, target string
	}{
		{"doc_group_characters", "character_id", "characters"},
		{"doc_group_events", "event_id", "events"},
		{"doc_group_places", "place_id", "places"},
	}

	for _, t := range tables {
		_, err := db.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
			    doc_group_id INTEGER NOT NULL,
			    %[2]s INTEGER NOT NULL,
			    PRIMARY KEY (doc_group_id, %[2]s),
			    FOREIGN KEY (doc_group_id) REFERENCES doc_groups(id) ON DELETE CASCADE,
			    FOREIGN KEY (%[2]s) REFERENCES %[3]s(id) ON DELETE CASCADE
			)
		`, t.name, t.column, t.target))
		if err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}
