// Package sqlite - database migrations
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/untoldecay/cora/internal/storage/sqlite/migrations"
)

// Migration represents a single database migration
type Migration struct {
	Name string
	Func func(*sql.DB) error
}

// migrationsList is the ordered list of all migrations.
// Every migration is idempotent and runs on each open.
var migrationsList = []Migration{
	{"doc_notes_column", migrations.MigrateDocNotesColumn},
	{"group_notes_column", migrations.MigrateGroupNotesColumn},
	{"project_timestamps", migrations.MigrateProjectTimestamps},
	{"event_range_columns", migrations.MigrateEventRangeColumns},
	{"group_link_tables", migrations.MigrateGroupLinkTables},
	{"drop_orphan_links", migrations.MigrateDropOrphanLinks},
	{"scoped_drafts", migrations.MigrateScopedDrafts},
}

// MigrationInfo contains metadata about a migration for inspection
type MigrationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListMigrations returns all registered migrations with descriptions.
func ListMigrations() []MigrationInfo {
	result := make([]MigrationInfo, len(migrationsList))
	for i, m := range migrationsList {
		result[i] = MigrationInfo{
			Name:        m.Name,
			Description: getMigrationDescription(m.Name),
		}
	}
	return result
}

func getMigrationDescription(name string) string {
	descriptions := map[string]string{
		"doc_notes_column":    "Adds notes column to docs",
		"group_notes_column":  "Adds notes column to doc_groups",
		"project_timestamps":  "Adds created_at/updated_at to projects and backfills them",
		"event_range_columns": "Adds start_date/end_date to events, seeded from date",
		"group_link_tables":   "Adds doc_group_characters, doc_group_events and doc_group_places",
		"drop_orphan_links":   "Removes groups, docs, drafts and links whose parents were deleted",
		"scoped_drafts":       "Adds project_drafts and folder_drafts tables",
	}

	if desc, ok := descriptions[name]; ok {
		return desc
	}
	return "Unknown migration"
}

// RunMigrations executes all registered migrations in order.
// Uses an EXCLUSIVE transaction so two processes opening the same file do
// not race on check-then-alter steps.
func RunMigrations(db *sql.DB) error {
	// PRAGMA foreign_keys cannot change inside a transaction.
	_, err := db.Exec("PRAGMA foreign_keys = OFF")
	if err != nil {
		return fmt.Errorf("failed to disable foreign keys for migrations: %w", err)
	}
	defer func() { _, _ = db.Exec("PRAGMA foreign_keys = ON") }()

	_, err = db.Exec("BEGIN EXCLUSIVE")
	if err != nil {
		return fmt.Errorf("failed to acquire exclusive lock for migrations: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = db.Exec("ROLLBACK")
		}
	}()

	for _, migration := range migrationsList {
		if err := migration.Func(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
	}

	if err := verifyForeignKeys(db); err != nil {
		return fmt.Errorf("post-migration validation failed: %w", err)
	}

	if _, err := db.Exec("COMMIT"); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	committed = true

	return nil
}

// verifyForeignKeys fails when any row references a missing parent.
func verifyForeignKeys(db *sql.DB) error {
	rows, err := db.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("failed to run foreign key check: %w", err)
	}
	defer rows.Close()

	var violations []string
	for rows.Next() {
		var table, parent string
		var rowid sql.NullInt64
		var fkid int64
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign key violation: %w", err)
		}
		violations = append(violations, fmt.Sprintf("%s row %d -> %s", table, rowid.Int64, parent))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d foreign key violations (first: %s)", len(violations), violations[0])
	}
	return nil
}
