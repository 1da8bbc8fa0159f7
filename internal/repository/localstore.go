package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// LocalStore keeps anonymous transcripts in an embedded SQLite file, one slot
// namespace per chat.
type LocalStore struct {
	db *sql.DB
}

func OpenLocalStore(ctx context.Context, path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		`CREATE TABLE IF NOT EXISTS local_slots (
			scope      TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (scope, key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init local store: %w", err)
		}
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Scope returns the slots of one scope.
func (s *LocalStore) Scope(scope string) *ScopedStore {
	return &ScopedStore{store: s, scope: scope}
}

// ForChat returns the slots of one Telegram chat.
func (s *LocalStore) ForChat(chatID int64) *ScopedStore {
	return s.Scope("tg:" + strconv.FormatInt(chatID, 10))
}

type ScopedStore struct {
	store *LocalStore
	scope string
}

// Load returns nil, nil when the slot is empty.
func (s *ScopedStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.store.db.QueryRowContext(ctx,
		`SELECT value FROM local_slots WHERE scope = ? AND key = ?`, s.scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return value, nil
}

func (s *ScopedStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO local_slots (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.scope, key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

func (s *ScopedStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx,
		`DELETE FROM local_slots WHERE scope = ? AND key = ?`, s.scope, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}
