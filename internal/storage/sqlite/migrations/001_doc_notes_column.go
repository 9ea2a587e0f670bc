package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateDocNotesColumn adds the notes column to docs.
func MigrateDocNotesColumn(db *sql.DB) error {
	return addColumnIfMissing(db, "docs", "notes", `TEXT NOT NULL DEFAULT ''`)
}

// MigrateGroupNotesColumn adds the notes column to doc_groups.
func MigrateGroupNotesColumn(db *sql.DB) error {
	return addColumnIfMissing(db, "doc_groups", "notes", `TEXT NOT NULL DEFAULT ''`)
}

// addColumnIfMissing runs ALTER TABLE ... ADD COLUMN unless the column exists.
func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	var hasColumn bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0 FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&hasColumn)
	if err != nil {
		return fmt.Errorf("failed to check for %s.%s column: %w", table, column, err)
	}

	if !hasColumn {
		_, err = db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
		if err != nil {
			return fmt.Errorf("failed to add %s.%s column: %w", table, column, err)
		}
	}

	return nil
}
