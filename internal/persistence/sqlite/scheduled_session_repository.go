package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// ScheduledSessionRepository implements
// persistence.ScheduledSessionRepository using SQLite.
type ScheduledSessionRepository struct {
	pool *ConnectionPool
}

// NewScheduledSessionRepository creates a new SQLite scheduled session
// repository.
func NewScheduledSessionRepository(pool *ConnectionPool) *ScheduledSessionRepository {
	return &ScheduledSessionRepository{pool: pool}
}

// CommitSession atomically transitions the schedule from collecting to
// scheduled and records the committed session with its attendees. When the
// schedule already left the collecting state, ErrStaleStatus is returned and
// nothing is written: the conditional UPDATE inside the transaction is what
// makes double-commit races single-winner.
func (r *ScheduledSessionRepository) CommitSession(ctx context.Context, session persistence.ScheduledSession) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := transitionStatus(ctx, txExecer{tx}, session.ScheduleID, persistence.StatusCollecting, persistence.StatusScheduled); err != nil {
			return err
		}

		_, err := tx.Exec(`INSERT INTO scheduled_sessions
			(id, schedule_id, scheduled_at, duration_hours, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			session.ID,
			session.ScheduleID,
			session.ScheduledAt.Format(time.RFC3339),
			session.DurationHours,
			session.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return mapError(err)
		}

		for _, responseID := range session.AttendeeIDs {
			if _, err := tx.Exec(`INSERT INTO scheduled_session_attendees
				(session_id, response_id) VALUES (?, ?)`,
				session.ID, responseID); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetSessionForSchedule returns the committed session for a schedule, with
// attendee response IDs in insertion order.
func (r *ScheduledSessionRepository) GetSessionForSchedule(ctx context.Context, scheduleID string) (persistence.ScheduledSession, error) {
	var (
		session              persistence.ScheduledSession
		scheduledAt, created string
	)

	err := r.pool.db.QueryRowContext(ctx, `SELECT id, schedule_id, scheduled_at, duration_hours, created_at
		FROM scheduled_sessions WHERE schedule_id = ?`, scheduleID).Scan(
		&session.ID,
		&session.ScheduleID,
		&scheduledAt,
		&session.DurationHours,
		&created,
	)
	if err != nil {
		return persistence.ScheduledSession{}, mapError(err)
	}

	if session.ScheduledAt, err = time.Parse(time.RFC3339, scheduledAt); err != nil {
		return persistence.ScheduledSession{}, fmt.Errorf("sqlite: parse scheduled_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return persistence.ScheduledSession{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}

	rows, err := r.pool.db.QueryContext(ctx, `SELECT response_id FROM scheduled_session_attendees
		WHERE session_id = ? ORDER BY rowid`, session.ID)
	if err != nil {
		return persistence.ScheduledSession{}, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var responseID string
		if err := rows.Scan(&responseID); err != nil {
			return persistence.ScheduledSession{}, err
		}
		session.AttendeeIDs = append(session.AttendeeIDs, responseID)
	}
	return session, rows.Err()
}

// txExecer adapts *sql.Tx to the execer interface used by transitionStatus.
type txExecer struct {
	tx *sql.Tx
}

func (t txExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}
