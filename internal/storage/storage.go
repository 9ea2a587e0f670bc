// Package storage defines the interface for cora storage backends.
package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/untoldecay/cora/internal/types"
)

// ErrNotFound is returned when an operation targets a record that does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails validation (for example an
// empty required name or an unknown reorder direction).
var ErrValidation = errors.New("validation failed")

// ErrDBNotInitialized is returned when a storage feature is used before the
// database has been opened.
var ErrDBNotInitialized = errors.New("database not initialized")

// Transaction provides atomic multi-operation support within a single database transaction.
//
// The Transaction interface exposes a subset of Storage methods that execute within
// a single database transaction. It is used where several writes must land
// together, such as creating a document and restoring its text, notes and
// drafts during import.
//
// # Transaction Semantics
//
//   - All operations within the transaction share the same database connection
//   - Changes are not visible to other connections until commit
//   - If any operation returns an error, the transaction is rolled back
//   - If the callback function panics, the transaction is rolled back
//   - On successful return from the callback, the transaction is committed
//
// # SQLite Specifics
//
//   - Uses BEGIN IMMEDIATE mode to acquire write lock early
//   - IMMEDIATE mode serializes concurrent transactions properly
//
// # Example Usage
//
//	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
//	    doc, err := tx.CreateDocument(ctx, projectID, "Chapter 1", &groupID)
//	    if err != nil {
//	        return err // Triggers rollback
//	    }
//	    _, err = tx.UpdateDocument(ctx, doc.ID, types.DocumentUpdate{Text: &text})
//	    return err // nil triggers commit
//	})
type Transaction interface {
	CreateDocument(ctx context.Context, projectID int64, name string, groupID *int64) (*types.Document, error)
	UpdateDocument(ctx context.Context, id int64, update types.DocumentUpdate) (*types.Document, error)
	GetDocument(ctx context.Context, id int64) (*types.Document, error)

	// ImportDraft inserts a draft keeping the given timestamps.
	ImportDraft(ctx context.Context, draft *types.Draft) (*types.Draft, error)

	// Config operations
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)
}

// Storage defines the interface for cora storage backends.
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, project *types.Project) (*types.Project, error)
	GetProject(ctx context.Context, id int64) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	UpdateProject(ctx context.Context, id int64, update types.ProjectUpdate) (*types.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	// Group tree
	CreateGroup(ctx context.Context, projectID int64, name string, parentID *int64) (*types.Group, error)
	CreateGroupAfter(ctx context.Context, projectID int64, name string, parentID *int64, afterOrder int64) (*types.Group, error)
	GetGroup(ctx context.Context, id int64) (*types.Group, error)
	ListGroups(ctx context.Context, projectID int64) ([]*types.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	ReorderGroup(ctx context.Context, id int64, dir types.Direction) error
	RenameGroup(ctx context.Context, id int64, name string) error
	UpdateGroupNotes(ctx context.Context, id int64, notes string) error

	// Document ordering
	CreateDocument(ctx context.Context, projectID int64, name string, groupID *int64) (*types.Document, error)
	CreateDocumentAfter(ctx context.Context, projectID int64, name string, groupID *int64, afterOrder int64) (*types.Document, error)
	CreateLegacyDocument(ctx context.Context, projectID int64, path, name, text string) (*types.Document, error)
	GetDocument(ctx context.Context, id int64) (*types.Document, error)
	ListDocuments(ctx context.Context, projectID int64) ([]*types.Document, error)
	UpdateDocument(ctx context.Context, id int64, update types.DocumentUpdate) (*types.Document, error)
	UpdateDocumentText(ctx context.Context, id int64, text string) error
	UpdateDocumentNotes(ctx context.Context, id int64, notes string) error
	RenameDocument(ctx context.Context, id int64, name string) error
	DeleteDocument(ctx context.Context, id int64) error
	ReorderDocument(ctx context.Context, id int64, dir types.Direction) error
	MoveDocumentToGroup(ctx context.Context, id int64, groupID *int64) error

	// Drafts
	CreateDraft(ctx context.Context, documentID int64, name, content string) (*types.Draft, error)
	ImportDraft(ctx context.Context, draft *types.Draft) (*types.Draft, error)
	GetDraft(ctx context.Context, id int64) (*types.Draft, error)
	ListDrafts(ctx context.Context, documentID int64) ([]*types.Draft, error)
	UpdateDraft(ctx context.Context, id int64, update types.DraftUpdate) (*types.Draft, error)
	DeleteDraft(ctx context.Context, id int64) error
	DeleteAllDrafts(ctx context.Context, documentID int64) error
	RestoreDraft(ctx context.Context, id int64) error

	// Project drafts, most recently updated first
	CreateProjectDraft(ctx context.Context, projectID int64, name, content string) (*types.ProjectDraft, error)
	GetProjectDraft(ctx context.Context, id int64) (*types.ProjectDraft, error)
	ListProjectDrafts(ctx context.Context, projectID int64) ([]*types.ProjectDraft, error)
	UpdateProjectDraft(ctx context.Context, id int64, update types.DraftUpdate) (*types.ProjectDraft, error)
	DeleteProjectDraft(ctx context.Context, id int64) error
	DeleteAllProjectDrafts(ctx context.Context, projectID int64) error

	// Folder drafts, kept in a dense per-group order
	CreateFolderDraft(ctx context.Context, groupID int64, name, content string) (*types.FolderDraft, error)
	CreateFolderDraftAt(ctx context.Context, groupID int64, name, content string, index int64) (*types.FolderDraft, error)
	GetFolderDraft(ctx context.Context, id int64) (*types.FolderDraft, error)
	ListFolderDrafts(ctx context.Context, groupID int64) ([]*types.FolderDraft, error)
	UpdateFolderDraft(ctx context.Context, id int64, update types.DraftUpdate) (*types.FolderDraft, error)
	DeleteFolderDraft(ctx context.Context, id int64) error
	DeleteAllFolderDrafts(ctx context.Context, groupID int64) error
	ReorderFolderDraft(ctx context.Context, id int64, dir types.Direction) error
	MoveFolderDraft(ctx context.Context, id int64, index int64) error

	// Entities
	CreateCharacter(ctx context.Context, projectID int64, name, desc string) (*types.Character, error)
	GetCharacter(ctx context.Context, id int64) (*types.Character, error)
	ListCharacters(ctx context.Context, projectID int64) ([]*types.Character, error)
	UpdateCharacter(ctx context.Context, id int64, update types.CharacterUpdate) (*types.Character, error)
	DeleteCharacter(ctx context.Context, id int64) error

	CreateEvent(ctx context.Context, event *types.Event) (*types.Event, error)
	GetEvent(ctx context.Context, id int64) (*types.Event, error)
	ListEvents(ctx context.Context, projectID int64) ([]*types.Event, error)
	UpdateEvent(ctx context.Context, id int64, update types.EventUpdate) (*types.Event, error)
	DeleteEvent(ctx context.Context, id int64) error

	CreatePlace(ctx context.Context, projectID int64, name, desc string) (*types.Place, error)
	GetPlace(ctx context.Context, id int64) (*types.Place, error)
	ListPlaces(ctx context.Context, projectID int64) ([]*types.Place, error)
	UpdatePlace(ctx context.Context, id int64, update types.PlaceUpdate) (*types.Place, error)
	DeletePlace(ctx context.Context, id int64) error

	// Relation links. Attach is idempotent; detaching an absent pair is a no-op.
	AttachToDocument(ctx context.Context, kind types.LinkKind, documentID, entityID int64) error
	DetachFromDocument(ctx context.Context, kind types.LinkKind, documentID, entityID int64) error
	ListForDocument(ctx context.Context, kind types.LinkKind, documentID int64) ([]int64, error)
	AttachToGroup(ctx context.Context, kind types.LinkKind, groupID, entityID int64) error
	DetachFromGroup(ctx context.Context, kind types.LinkKind, groupID, entityID int64) error
	ListForGroup(ctx context.Context, kind types.LinkKind, groupID int64) ([]int64, error)
	// ListDocumentLinks returns document id -> attached entity ids for a whole project.
	ListDocumentLinks(ctx context.Context, kind types.LinkKind, projectID int64) (map[int64][]int64, error)
	// ListGroupLinks returns group id -> attached entity ids for a whole project.
	ListGroupLinks(ctx context.Context, kind types.LinkKind, projectID int64) (map[int64][]int64, error)

	// Timelines
	CreateTimeline(ctx context.Context, tl *types.Timeline) (*types.Timeline, error)
	GetTimeline(ctx context.Context, id int64) (*types.Timeline, error)
	GetTimelineByEntity(ctx context.Context, entityType types.TimelineEntity, entityID int64) (*types.Timeline, error)
	ListTimelines(ctx context.Context) ([]*types.Timeline, error)
	UpdateTimeline(ctx context.Context, id int64, update types.TimelineUpdate) (*types.Timeline, error)
	DeleteTimeline(ctx context.Context, id int64) error
	DeleteTimelineByEntity(ctx context.Context, entityType types.TimelineEntity, entityID int64) error

	// Config
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)
	GetAllConfig(ctx context.Context) (map[string]string, error)

	// Transactions
	//
	// RunInTransaction executes a function within a database transaction.
	//   - If fn returns nil, the transaction is committed
	//   - If fn returns an error, the transaction is rolled back
	//   - If fn panics, the transaction is rolled back and the panic is re-raised
	//   - Uses BEGIN IMMEDIATE for SQLite to acquire write lock early
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Lifecycle
	Close() error

	// Path returns the database file path.
	Path() string

	// UnderlyingDB returns the underlying *sql.DB connection.
	// WARNING: Direct database access bypasses the storage layer.
	UnderlyingDB() *sql.DB
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
