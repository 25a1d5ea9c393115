// AngelaMos | 2026
// sql.go

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS session_credentials (
		credential_key TEXT PRIMARY KEY,
		token          TEXT NOT NULL,
		expires_at     BIGINT,
		updated_at     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_credentials_expires_at
		ON session_credentials (expires_at)`,
}

type credentialRow struct {
	Token     string        `db:"token"`
	ExpiresAt sql.NullInt64 `db:"expires_at"`
}

// SQLStorage keeps credentials in postgres (pgx) or sqlite. Queries are
// written with ? placeholders and rebound for the driver.
type SQLStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db, now: time.Now}
}

func (s *SQLStorage) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate session_credentials: %w", err)
		}
	}
	return nil
}

func (s *SQLStorage) Load(ctx context.Context, key string) (string, error) {
	query := s.db.Rebind(`
		SELECT token, expires_at
		FROM session_credentials
		WHERE credential_key = ?`)

	var row credentialRow
	err := s.db.GetContext(ctx, &row, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}

	if row.ExpiresAt.Valid && row.ExpiresAt.Int64 <= s.now().Unix() {
		return "", ErrNoCredential
	}

	return row.Token, nil
}

func (s *SQLStorage) Save(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).Unix(), Valid: true}
	}

	query := s.db.Rebind(`
		INSERT INTO session_credentials (credential_key, token, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (credential_key) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt, now.Unix()); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *SQLStorage) Remove(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM session_credentials WHERE credential_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (s *SQLStorage) PurgeExpired(ctx context.Context) (int64, error) {
	query := s.db.Rebind(`
		DELETE FROM session_credentials
		WHERE expires_at IS NOT NULL AND expires_at <= ?`)

	result, err := s.db.ExecContext(ctx, query, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge expired credentials: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLStorage) Stats(ctx context.Context) (map[string]any, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM session_credentials`); err != nil {
		return nil, fmt.Errorf("count credentials: %w", err)
	}

	pool := s.db.Stats()
	return map[string]any{
		"backend":          s.db.DriverName(),
		"credentials":      count,
		"open_connections": pool.OpenConnections,
		"in_use":           pool.InUse,
		"idle":             pool.Idle,
		"wait_count":       pool.WaitCount,
	}, nil
}
