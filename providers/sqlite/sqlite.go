// Package sqlite stores expression documents in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hengadev/exprjson"
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT NOT NULL PRIMARY KEY,
		body BLOB NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
`

// DocumentStore implements exprjson.DocumentStore over a documents table.
type DocumentStore struct {
	db     *sql.DB
	owned  bool
	logger *exprjson.StructuredLogger
}

var _ exprjson.DocumentStore = (*DocumentStore)(nil)

// Open opens or creates the database at path and ensures the schema. Use
// ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*DocumentStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", exprjson.ErrInvalidConfiguration)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection test failed for '%s': %w", path, err)
	}
	store, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// New uses an existing connection and ensures the schema. Close leaves db
// open.
func New(ctx context.Context, db *sql.DB) (*DocumentStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &DocumentStore{db: db, logger: exprjson.NewProductionLogger("sqlite")}, nil
}

// WithLogger replaces the logger store operations are reported to.
func (s *DocumentStore) WithLogger(logger *exprjson.StructuredLogger) *DocumentStore {
	s.logger = logger
	return s
}

// Put inserts or replaces the document under key together with its digest.
// Replacing keeps the original created_at.
func (s *DocumentStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, digest) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, digest = excluded.digest
	`, key, body, exprjson.DocumentDigest(body))
	s.logger.LogStoreOperation(ctx, "put", "sqlite", key, len(body), err)
	if err != nil {
		return fmt.Errorf("failed to store document '%s': %w", key, err)
	}
	return nil
}

// Get returns the document under key after checking it against the stored
// digest.
func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		body   []byte
		digest string
	)
	err := s.db.QueryRowContext(ctx, `SELECT body, digest FROM documents WHERE key = ?`, key).Scan(&body, &digest)
	s.logger.LogStoreOperation(ctx, "get", "sqlite", key, len(body), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s'", exprjson.ErrDocumentNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document '%s': %w", key, err)
	}
	if err := exprjson.VerifyDigest(key, body, digest); err != nil {
		return nil, err
	}
	return body, nil
}

// Delete removes the document under key. Deleting a missing key is not an
// error.
func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	s.logger.LogStoreOperation(ctx, "delete", "sqlite", key, 0, err)
	if err != nil {
		return fmt.Errorf("failed to delete document '%s': %w", key, err)
	}
	return nil
}

func (s *DocumentStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM documents WHERE key LIKE ? ESCAPE '\' ORDER BY key
	`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan document key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database when Open created it.
func (s *DocumentStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
