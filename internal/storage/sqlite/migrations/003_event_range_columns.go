package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateEventRangeColumns adds start_date/end_date to events and seeds
// start_date from the legacy single date.
func MigrateEventRangeColumns(db *sql.DB) error {
	if err := addColumnIfMissing(db, "events", "start_date", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}
	if err := addColumnIfMissing(db, "events", "end_date", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}

	_, err := db.Exec(`UPDATE events SET start_date = date WHERE start_date = '' AND date != ''`)
	if err != nil {
		return fmt.Errorf("failed to seed event start dates: %w", err)
	}
	return nil
}
