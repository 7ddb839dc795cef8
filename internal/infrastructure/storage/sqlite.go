package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_bot_fleet/internal/domain"
)

const snapshotKey = "fleet_state"

// SQLiteSnapshotStore persists the whole simulation snapshot as a single keyed
// JSON record. Every save replaces the record atomically.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

func NewSQLiteSnapshotStore(dbPath string) (*SQLiteSnapshotStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteSnapshotStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSnapshotStore) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to init snapshot schema: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or (nil, nil) when none has been saved.
func (s *SQLiteSnapshotStore) Load() (*domain.Snapshot, error) {
	var data string
	row := s.db.QueryRow(`SELECT data FROM snapshots WHERE key = ?`, snapshotKey)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("corrupt snapshot record: %w", err)
	}
	return &snap, nil
}

// Save replaces the stored snapshot with the given one.
func (s *SQLiteSnapshotStore) Save(snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
			  ON CONFLICT(key) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`
	if _, err := s.db.Exec(query, snapshotKey, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
