package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/mobilityquest/internal/persist"
)

// BlobStore keeps named JSON blobs in SQLite. It implements persist.Gateway.
type BlobStore struct {
	db *sql.DB
}

func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

var (
	_ persist.Gateway  = (*BlobStore)(nil)
	_ persist.Lister   = (*BlobStore)(nil)
	_ persist.Replacer = (*BlobStore)(nil)
)

func (s *BlobStore) Get(key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", key, err)
	}
	return []byte(value), nil
}

func (s *BlobStore) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set blob %q: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove blob %q: %w", key, err)
	}
	return nil
}

// All returns every stored blob keyed by name.
func (s *BlobStore) All() (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(`SELECT key, value FROM blobs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	blobs := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan blob: %w", err)
		}
		blobs[key] = json.RawMessage(value)
	}
	return blobs, rows.Err()
}

// ReplaceAll atomically swaps every stored blob for the given set.
func (s *BlobStore) ReplaceAll(blobs map[string]json.RawMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM blobs`); err != nil {
		return fmt.Errorf("clear blobs: %w", err)
	}
	now := time.Now().UTC()
	for key, value := range blobs {
		if !json.Valid(value) {
			return fmt.Errorf("blob %q is not valid JSON", key)
		}
		if _, err := tx.Exec(`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)`, key, string(value), now); err != nil {
			return fmt.Errorf("insert blob %q: %w", key, err)
		}
	}
	return tx.Commit()
}
