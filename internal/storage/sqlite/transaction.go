package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/validation"
)

// sqliteTxStorage implements storage.Transaction on one connection that
// holds an open IMMEDIATE transaction.
type sqliteTxStorage struct {
	conn *sql.Conn
}

var _ storage.Transaction = (*sqliteTxStorage)(nil)

// RunInTransaction executes fn within a single database transaction.
// fn's error rolls back and is returned; a panic rolls back and is re-raised.
func (s *SQLiteStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	return s.withTx(ctx, func(conn *sql.Conn) error {
		return fn(&sqliteTxStorage{conn: conn})
	})
}

// CreateDocument appends a document within the transaction.
func (t *sqliteTxStorage) CreateDocument(ctx context.Context, projectID int64, name string, groupID *int64) (*types.Document, error) {
	if err := validation.Name("document", name); err != nil {
		return nil, err
	}
	return createDocument(ctx, t.conn, projectID, name, groupID)
}

// UpdateDocument applies a partial document update within the transaction.
func (t *sqliteTxStorage) UpdateDocument(ctx context.Context, id int64, update types.DocumentUpdate) (*types.Document, error) {
	if update.Name != nil {
		if err := validation.Name("document", *update.Name); err != nil {
			return nil, err
		}
	}
	return updateDocument(ctx, t.conn, id, update)
}

// GetDocument reads a document within the transaction.
func (t *sqliteTxStorage) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	return getDocument(ctx, t.conn, id)
}

// ImportDraft inserts a draft within the transaction, keeping its timestamps.
func (t *sqliteTxStorage) ImportDraft(ctx context.Context, draft *types.Draft) (*types.Draft, error) {
	d, err := importDraft(ctx, t.conn, draft)
	if err != nil {
		return nil, fmt.Errorf("import draft: %w", err)
	}
	return d, nil
}

// SetConfig sets a configuration value within the transaction.
func (t *sqliteTxStorage) SetConfig(ctx context.Context, key, value string) error {
	return setConfig(ctx, t.conn, key, value)
}

// GetConfig gets a configuration value within the transaction.
func (t *sqliteTxStorage) GetConfig(ctx context.Context, key string) (string, error) {
	return getConfig(ctx, t.conn, key)
}
