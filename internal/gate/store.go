package gate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore keeps the digest as the only content of a text file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the digest is kept in.
func (s *FileStore) Path() string { return s.path }

// Load reads and trims the file. A missing or blank file means no digest.
func (s *FileStore) Load(ctx context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read digest file: %w", err)
	}

	digest := strings.TrimSpace(string(data))
	return digest, digest != "", nil
}

// Store writes the digest, creating the parent directory when needed.
func (s *FileStore) Store(ctx context.Context, digest string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create digest directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(digest), 0644); err != nil {
		return fmt.Errorf("failed to write digest file: %w", err)
	}
	return nil
}

// Reset removes the file. A missing file is not an error.
func (s *FileStore) Reset(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove digest file: %w", err)
	}
	return nil
}

// SQLiteStore keeps one digest per source in the digests table.
type SQLiteStore struct {
	db     *sql.DB
	source string
}

// NewSQLiteStore creates a store for source. The digests table must exist (see shared.RunMigrations).
func NewSQLiteStore(db *sql.DB, source string) *SQLiteStore {
	return &SQLiteStore{db: db, source: source}
}

// Load returns the digest stored for the store's source.
func (s *SQLiteStore) Load(ctx context.Context) (string, bool, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, "SELECT digest FROM digests WHERE source = ?", s.source).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query digest: %w", err)
	}
	return digest, true, nil
}

// Store upserts the digest for the store's source.
func (s *SQLiteStore) Store(ctx context.Context, digest string) error {
	query := `
		INSERT INTO digests (source, digest, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET digest = excluded.digest, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.source, digest, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store digest: %w", err)
	}
	return nil
}

// Reset deletes the row for the store's source.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM digests WHERE source = ?", s.source); err != nil {
		return fmt.Errorf("failed to reset digest: %w", err)
	}
	return nil
}

// MemoryStore keeps the digest in memory.
type MemoryStore struct {
	mu     sync.Mutex
	digest string
	ok     bool
}

// NewMemoryStore creates a MemoryStore, optionally seeded with a digest.
func NewMemoryStore(seed string) *MemoryStore {
	return &MemoryStore{digest: seed, ok: seed != ""}
}

func (s *MemoryStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digest, s.ok, nil
}

func (s *MemoryStore) Store(ctx context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digest, s.ok = digest, true
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digest, s.ok = "", false
	return nil
}
