package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite" // register sqlite as database/sql driver

	"charge-console/internal/config"
)

var ErrNotFound = errors.New("session not found")

// Store persists sessions in a local sqlite database so the console
// survives restarts without forcing everyone to sign in again.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// NewStore opens (and if needed creates) the session database.
func NewStore(ctx context.Context, cfg config.SessionConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	// Single writer, WAL mode for concurrent reads
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &Store{db: db, ttl: cfg.TTL()}, nil
}

func (st *Store) Close() error {
	return st.db.Close()
}

// Put inserts or replaces a session.
func (st *Store) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	expires := s.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(st.ttl)
	}
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT(id) DO UPDATE SET data = $2, expires_at = $3`,
		s.ID, string(data), expires)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (st *Store) Get(ctx context.Context, id string) (*Session, error) {
	var data string
	err := st.db.QueryRowContext(ctx,
		"SELECT data FROM sessions WHERE id = $1", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (st *Store) Delete(ctx context.Context, id string) error {
	_, err := st.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes all sessions past their expiry.
func (st *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := st.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < $1", now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
