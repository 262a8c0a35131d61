package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/database"
)

// SQLiteStore persists sessions in the sessions table
type SQLiteStore struct {
	db  *database.DB
	now func() time.Time
	log zerolog.Logger
}

// NewSQLiteStore creates a store on an already migrated sessions database
func NewSQLiteStore(db *database.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		now: time.Now,
		log: log.With().Str("component", "session_sqlite").Logger(),
	}
}

// Get loads a session; expired rows are deleted and reported as not found
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var data string
	var expiresAt int64

	err := s.db.Conn().QueryRowContext(ctx,
		"SELECT data, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	sess := &Session{ID: id, ExpiresAt: time.Unix(expiresAt, 0)}
	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			s.log.Warn().Err(err).Msg("Failed to delete expired session")
		}
		return nil, ErrNotFound
	}

	if err := json.Unmarshal([]byte(data), &sess.Values); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	return sess, nil
}

// Save upserts a session
func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess.Values)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, sess.ID, string(data), sess.ExpiresAt.Unix(), s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every expired session and returns how many were removed
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
