// Package buildstate persists per-document build records so unchanged
// documents can be skipped on later runs.
package buildstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one document's last successful build.
type Record struct {
	Docname    string
	SourceHash string
	BuiltAt    time.Time
	BuildID    string
}

// Store is a SQLite-backed build-state store.
// Use ":memory:" for tests, or a file path for persistent storage.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if needed initializes) the build-state database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open build state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize build state schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		docname TEXT PRIMARY KEY,
		source_hash TEXT NOT NULL,
		built_at INTEGER NOT NULL,
		build_id TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored record for docname, or ok=false when the document
// has never been built.
func (s *Store) Get(ctx context.Context, docname string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec Record
	var builtAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT docname, source_hash, built_at, build_id FROM documents WHERE docname = ?",
		docname,
	).Scan(&rec.Docname, &rec.SourceHash, &builtAt, &rec.BuildID)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("query build state: %w", err)
	}
	rec.BuiltAt = time.Unix(builtAt, 0)
	return rec, true, nil
}

// Put upserts a document's build record.
func (s *Store) Put(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (docname, source_hash, built_at, build_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(docname) DO UPDATE SET
		   source_hash = excluded.source_hash,
		   built_at = excluded.built_at,
		   build_id = excluded.build_id`,
		rec.Docname, rec.SourceHash, rec.BuiltAt.Unix(), rec.BuildID,
	)
	if err != nil {
		return fmt.Errorf("record build state: %w", err)
	}
	return nil
}

// Delete removes a document's record (source file deleted).
func (s *Store) Delete(ctx context.Context, docname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE docname = ?", docname); err != nil {
		return fmt.Errorf("delete build state: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
