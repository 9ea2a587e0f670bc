package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateScopedDrafts creates the project-level and group-level draft tables.
func MigrateScopedDrafts(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS project_drafts (
		    id INTEGER PRIMARY KEY AUTOINCREMENT,
		    project_id INTEGER NOT NULL,
		    name TEXT NOT NULL,
		    content TEXT NOT NULL DEFAULT '',
		    created_at TEXT NOT NULL,
		    updated_at TEXT NOT NULL,
		    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_drafts_project ON project_drafts(project_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS folder_drafts (
		    id INTEGER PRIMARY KEY AUTOINCREMENT,
		    doc_group_id INTEGER NOT NULL,
		    name TEXT NOT NULL,
		    content TEXT NOT NULL DEFAULT '',
		    sort_order INTEGER NOT NULL DEFAULT 0,
		    created_at TEXT NOT NULL,
		    updated_at TEXT NOT NULL,
		    FOREIGN KEY (doc_group_id) REFERENCES doc_groups(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_folder_drafts_group ON folder_drafts(doc_group_id, sort_order)`,
		`DELETE FROM project_drafts WHERE project_id NOT IN (SELECT id FROM projects)`,
		`DELETE FROM folder_drafts WHERE doc_group_id NOT IN (SELECT id FROM doc_groups)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create scoped draft tables: %w", err)
		}
	}
	return nil
}
