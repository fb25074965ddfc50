package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// AuthSessionRepository implements persistence.AuthSessionRepository using
// SQLite.
type AuthSessionRepository struct {
	pool *ConnectionPool
}

// NewAuthSessionRepository creates a new SQLite auth session repository.
func NewAuthSessionRepository(pool *ConnectionPool) *AuthSessionRepository {
	return &AuthSessionRepository{pool: pool}
}

// CreateAuthSession inserts a new login session.
func (r *AuthSessionRepository) CreateAuthSession(ctx context.Context, session persistence.AuthSession) error {
	_, err := r.pool.db.ExecContext(ctx, `INSERT INTO auth_sessions
		(id, organizer_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.OrganizerID,
		session.Token,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
		nullableTime(session.RevokedAt),
	)
	return mapError(err)
}

// GetAuthSessionByToken retrieves a session by its token.
func (r *AuthSessionRepository) GetAuthSessionByToken(ctx context.Context, token string) (persistence.AuthSession, error) {
	var (
		session            persistence.AuthSession
		expiresAt, created string
		revokedAt          sql.NullString
	)

	err := r.pool.db.QueryRowContext(ctx, `SELECT id, organizer_id, token, expires_at, created_at, revoked_at
		FROM auth_sessions WHERE token = ?`, token).Scan(
		&session.ID,
		&session.OrganizerID,
		&session.Token,
		&expiresAt,
		&created,
		&revokedAt,
	)
	if err != nil {
		return persistence.AuthSession{}, mapError(err)
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("sqlite: parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if revokedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, revokedAt.String)
		if err != nil {
			return persistence.AuthSession{}, fmt.Errorf("sqlite: parse revoked_at: %w", err)
		}
		session.RevokedAt = &parsed
	}
	return session, nil
}

// RevokeAuthSession marks a session revoked.
func (r *AuthSessionRepository) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE auth_sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL",
		revokedAt.UTC().Format(time.RFC3339), token)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteExpiredAuthSessions removes sessions that expired before reference.
func (r *AuthSessionRepository) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx,
		"DELETE FROM auth_sessions WHERE expires_at < ?",
		reference.UTC().Format(time.RFC3339))
	return mapError(err)
}

func nullableTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339), Valid: true}
}
