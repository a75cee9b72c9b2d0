// Package store persists knowledge records in SQLite. Records are the
// durable form of uploaded files and saved processing output; workflows
// retrieve them by ID, title, or source filename.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"dataforge/internal/logging"
)

// ErrNotFound is returned when no record matches the lookup key.
var ErrNotFound = errors.New("record not found")

// KnowledgeRecord is one stored document. Content holds the processed text;
// RawContent preserves the original upload for re-processing.
type KnowledgeRecord struct {
	ID         string
	Title      string
	Content    string
	RawContent string
	Filename   string
	FileType   string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RecordStore is the persistence surface workflows depend on.
type RecordStore interface {
	Save(rec *KnowledgeRecord) error
	GetByID(id string) (*KnowledgeRecord, error)
	GetByTitle(title string) (*KnowledgeRecord, error)
	GetByFilename(filename string) (*KnowledgeRecord, error)
	List() ([]*KnowledgeRecord, error)
	Close() error
}

// LocalStore implements RecordStore on a single SQLite file.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore opens (creating if needed) the SQLite database at path and
// ensures the schema exists.
func NewLocalStore(path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocalStore")
	defer timer.Stop()

	logging.Store("Initializing record store at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &LocalStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("record store schema ready")

	return s, nil
}

func (s *LocalStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS knowledge_records (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			raw_content TEXT NOT NULL DEFAULT '',
			filename TEXT NOT NULL DEFAULT '',
			file_type TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create knowledge_records table: %w", err)
	}
	_, _ = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_filename ON knowledge_records(filename)`)
	_, _ = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_title ON knowledge_records(title)`)
	return nil
}

// Save inserts a record, assigning an ID and timestamps when missing. When a
// record with the same ID exists its content and metadata are replaced.
func (s *LocalStore) Save(rec *KnowledgeRecord) error {
	timer := logging.StartTimer(logging.CategoryStore, "Save")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	logging.StoreDebug("saving record id=%s title=%q filename=%q content_len=%d",
		rec.ID, rec.Title, rec.Filename, len(rec.Content))

	_, err := s.db.Exec(`
		INSERT INTO knowledge_records (id, title, content, raw_content, filename, file_type, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			raw_content = excluded.raw_content,
			filename = excluded.filename,
			file_type = excluded.file_type,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Title, rec.Content, rec.RawContent, rec.Filename, rec.FileType,
		strings.Join(rec.Tags, ","), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

// GetByID returns the record with the given ID, or ErrNotFound.
func (s *LocalStore) GetByID(id string) (*KnowledgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryOne(`SELECT id, title, content, raw_content, filename, file_type, tags, created_at, updated_at
		FROM knowledge_records WHERE id = ?`, id)
}

// GetByTitle returns the most recent record with the given title, or
// ErrNotFound.
func (s *LocalStore) GetByTitle(title string) (*KnowledgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryOne(`SELECT id, title, content, raw_content, filename, file_type, tags, created_at, updated_at
		FROM knowledge_records WHERE title = ? ORDER BY updated_at DESC LIMIT 1`, title)
}

// GetByFilename returns the most recent record ingested from the given
// source filename, or ErrNotFound.
func (s *LocalStore) GetByFilename(filename string) (*KnowledgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryOne(`SELECT id, title, content, raw_content, filename, file_type, tags, created_at, updated_at
		FROM knowledge_records WHERE filename = ? ORDER BY updated_at DESC LIMIT 1`, filename)
}

// List returns every record, newest first.
func (s *LocalStore) List() ([]*KnowledgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, title, content, raw_content, filename, file_type, tags, created_at, updated_at
		FROM knowledge_records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*KnowledgeRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *LocalStore) Close() error {
	logging.StoreDebug("closing record store at %s", s.dbPath)
	return s.db.Close()
}

func (s *LocalStore) queryOne(query string, arg interface{}) (*KnowledgeRecord, error) {
	row := s.db.QueryRow(query, arg)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func scanRecord(scan func(dest ...interface{}) error) (*KnowledgeRecord, error) {
	var rec KnowledgeRecord
	var tags string
	if err := scan(&rec.ID, &rec.Title, &rec.Content, &rec.RawContent,
		&rec.Filename, &rec.FileType, &tags, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if tags != "" {
		rec.Tags = strings.Split(tags, ",")
	}
	return &rec, nil
}
