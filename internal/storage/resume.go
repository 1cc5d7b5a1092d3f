package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ResumeStore persists per-file resume positions so a re-opened session
// continues where each file left off. Per-channel positions are
// deliberately not stored: they are session state.
type ResumeStore struct {
	db *sql.DB
}

func NewResumeStore(dbPath string) (*ResumeStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &ResumeStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *ResumeStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resume_positions (
		path TEXT PRIMARY KEY,
		position_ms INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_resume_updated ON resume_positions(updated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *ResumeStore) Close() error {
	return s.db.Close()
}

// Load returns all saved resume positions.
func (s *ResumeStore) Load() (map[string]time.Duration, error) {
	rows, err := s.db.Query(`SELECT path, position_ms FROM resume_positions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Duration)
	for rows.Next() {
		var path string
		var ms int64
		if err := rows.Scan(&path, &ms); err != nil {
			return nil, err
		}
		out[path] = time.Duration(ms) * time.Millisecond
	}

	return out, rows.Err()
}

// Save upserts the resume position for a file path.
func (s *ResumeStore) Save(path string, pos time.Duration) error {
	_, err := s.db.Exec(`
		INSERT INTO resume_positions (path, position_ms, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			position_ms = excluded.position_ms,
			updated_at = excluded.updated_at
	`, path, pos.Milliseconds())

	return err
}

// Delete removes a file's resume position, typically after it finished.
func (s *ResumeStore) Delete(path string) error {
	_, err := s.db.Exec(`DELETE FROM resume_positions WHERE path = ?`, path)
	return err
}
