package sessioninfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// PostgresStore persists session records as JSONB rows. Expiry is a
// timestamp column: expired rows are invisible to every read and are
// physically removed by DeleteExpired.
type PostgresStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

// PostgresStoreOption configures a PostgresStore.
type PostgresStoreOption func(*PostgresStore)

// WithPostgresTTL overrides the default session TTL.
func WithPostgresTTL(ttl time.Duration) PostgresStoreOption {
	return func(s *PostgresStore) {
		s.ttl = ttl
	}
}

// NewPostgresStore creates a store over an existing database handle.
func NewPostgresStore(db *sqlx.DB, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{
		db:  db,
		ttl: session.DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL DEFAULT '',
		record     JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,
}

// Migrate creates the sessions table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return session.ErrStoreUnavailable(fmt.Errorf("migrate sessions table: %w", err))
		}
	}
	logx.Debug("Sessions table ready")
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *session.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return session.ErrDecodeFailed(err)
	}
	query := `
		INSERT INTO sessions (session_id, user_id, record, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, query, rec.SessionID, rec.UserID, data, now, now.Add(s.ttl))
	if err != nil {
		return session.ErrStoreUnavailable(err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	var data []byte
	query := `SELECT record FROM sessions WHERE session_id = $1 AND expires_at > now()`
	err := s.db.GetContext(ctx, &data, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, session.ErrStoreUnavailable(err)
	}
	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, session.ErrDecodeFailed(err)
	}
	return &rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec *session.Record) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, session.ErrDecodeFailed(err)
	}
	query := `
		UPDATE sessions
		SET record = $2, user_id = $3, updated_at = $4, expires_at = $5
		WHERE session_id = $1 AND expires_at > now()`
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, query, rec.SessionID, data, rec.UserID, now, now.Add(s.ttl))
	if err != nil {
		return false, session.ErrStoreUnavailable(err)
	}
	return rowsAffected(res), nil
}

func (s *PostgresStore) Extend(ctx context.Context, sessionID string) (bool, error) {
	query := `
		UPDATE sessions
		SET expires_at = $2
		WHERE session_id = $1 AND expires_at > now()`
	res, err := s.db.ExecContext(ctx, query, sessionID, time.Now().UTC().Add(s.ttl))
	if err != nil {
		return false, session.ErrStoreUnavailable(err)
	}
	return rowsAffected(res), nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	query := `DELETE FROM sessions WHERE session_id = $1 AND expires_at > now()`
	res, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return false, session.ErrStoreUnavailable(err)
	}
	return rowsAffected(res), nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*session.Record, error) {
	query := `
		SELECT record FROM sessions
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY updated_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows [][]byte
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, session.ErrStoreUnavailable(err)
	}
	out := make([]*session.Record, 0, len(rows))
	for _, data := range rows {
		var rec session.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			logx.WithError(err).Warn("Skipping undecodable session record")
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

// DeleteExpired removes rows whose TTL has lapsed. Meant to run
// periodically from the server.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, session.ErrStoreUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if n > 0 {
		logx.WithField("count", n).Debug("Expired sessions removed")
	}
	return n, nil
}

func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
