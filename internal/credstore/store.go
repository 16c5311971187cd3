// Package credstore provides SQLite-backed durable storage for the session
// credentials: the bearer token and the cached profile of the signed-in user.
// It is the terminal counterpart of the browser's localStorage, with the same
// fixed keys.
package credstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/mannaz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS credentials (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Storage keys. Fixed so that every release of the client finds the session
// left behind by the previous one.
const (
	keyToken = "auth_token"
	keyUser  = "user"
)

// Store wraps a sql.DB with credential-specific operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the credential database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("credstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("credstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("credstore: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Token returns the stored bearer token, or empty string when signed out.
func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

// SetToken durably replaces the bearer token.
func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

// User returns the cached profile, or nil when none is stored.
func (s *Store) User() (*models.User, error) {
	raw, err := s.get(keyUser)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("credstore: decode cached user: %w", err)
	}
	return &u, nil
}

// SetUser durably replaces the cached profile.
func (s *Store) SetUser(u models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("credstore: encode user: %w", err)
	}
	return s.set(keyUser, string(raw))
}

// Clear removes the token and the cached profile in one transaction.
func (s *Store) Clear() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("credstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, key := range []string{keyToken, keyUser} {
		if _, err := tx.Exec(`DELETE FROM credentials WHERE key = ?`, key); err != nil {
			return fmt.Errorf("credstore: clear %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credstore: get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.conn.Exec(`
		INSERT INTO credentials (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("credstore: set %s: %w", key, err)
	}
	return nil
}
