// Package cora provides a minimal public API for programs that want to read
// or write cora projects without going through the CLI.
//
// It exports the storage interface, the record types and the folder
// export/import entry points.
package cora

import (
	"context"
	"log/slog"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/export"
	"github.com/untoldecay/cora/internal/importer"
	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/storage/sqlite"
	"github.com/untoldecay/cora/internal/types"
)

// Storage is the interface for cora storage operations
type Storage = storage.Storage

// Transaction provides atomic multi-operation support within a database transaction.
// Use Storage.RunInTransaction() to obtain a Transaction instance.
type Transaction = storage.Transaction

// Record types
type (
	Project   = types.Project
	Group     = types.Group
	Document  = types.Document
	Draft     = types.Draft
	Character = types.Character
	Event     = types.Event
	Place     = types.Place
	Timeline  = types.Timeline
	Direction = types.Direction
	LinkKind  = types.LinkKind
)

// Reorder directions
const (
	Up   = types.DirectionUp
	Down = types.DirectionDown
)

// ImportResult summarizes an import.
type ImportResult = importer.Result

// Sentinel errors, for use with errors.Is.
var (
	ErrNotFound   = storage.ErrNotFound
	ErrValidation = storage.ErrValidation
)

// NewSQLiteStorage opens (creating if needed) a cora database at dbPath.
func NewSQLiteStorage(ctx context.Context, dbPath string) (Storage, error) {
	return sqlite.New(ctx, dbPath)
}

// FindDatabasePath returns the database the CLI would use from the current
// directory: the nearest .cora/cora.db, else ~/.cora/cora.db.
func FindDatabasePath() string {
	return config.DBPath()
}

// ExportProject writes project projectID under dest with the store's export
// settings and returns the export root folder.
func ExportProject(ctx context.Context, s Storage, projectID int64, dest string) (string, error) {
	cfg, err := export.LoadConfig(ctx, s)
	if err != nil {
		return "", err
	}
	return export.NewExporter(s, cfg, slog.Default()).Export(ctx, projectID, dest)
}

// ImportProject imports folder as a new project.
func ImportProject(ctx context.Context, s Storage, folder string) (*ImportResult, error) {
	return importer.NewImporter(s, slog.Default()).ImportProject(ctx, folder)
}
