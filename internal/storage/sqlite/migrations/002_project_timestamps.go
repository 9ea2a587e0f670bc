package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateProjectTimestamps adds created_at/updated_at to projects and
// backfills rows that predate the columns.
func MigrateProjectTimestamps(db *sql.DB) error {
	if err := addColumnIfMissing(db, "projects", "created_at", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}
	if err := addColumnIfMissing(db, "projects", "updated_at", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}

	_, err := db.Exec(`
		UPDATE projects
		SET created_at = strftime('%Y-%m-%dT%H:%M:%S.000000000Z', 'now'),
		    updated_at = strftime('%Y-%m-%dT%H:%M:%S.000000000Z', 'now')
		WHERE created_at = ''
	`)
	if err != nil {
		return fmt.Errorf("failed to backfill project timestamps: %w", err)
	}
	return nil
}
