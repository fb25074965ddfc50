package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/timeslot"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool *ConnectionPool
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

const scheduleColumns = `id, campaign_id, owner_id, title, share_token, start_date, end_date,
	include_weekdays, weekday_window_start, weekday_window_end,
	weekend_window_start, weekend_window_end, slot_duration_hours,
	slot_overlap_hours, status, created_at, updated_at`

// CreateSchedule inserts a new availability poll.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.SessionSchedule) error {
	query := fmt.Sprintf(`INSERT INTO session_schedules (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, scheduleColumns)

	_, err := r.pool.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.CampaignID,
		schedule.OwnerID,
		schedule.Title,
		schedule.ShareToken,
		schedule.StartDate.Format(timeslot.DateFormat),
		schedule.EndDate.Format(timeslot.DateFormat),
		schedule.IncludeWeekdays,
		schedule.WeekdayWindow.Start.String(),
		schedule.WeekdayWindow.End.String(),
		schedule.WeekendWindow.Start.String(),
		schedule.WeekendWindow.End.String(),
		schedule.DurationHours,
		schedule.OverlapHours,
		schedule.Status,
		schedule.CreatedAt.UTC().Format(time.RFC3339),
		schedule.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetSchedule retrieves a schedule by ID.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.SessionSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM session_schedules WHERE id = ?", scheduleColumns)
	return r.scanSchedule(r.pool.db.QueryRowContext(ctx, query, id))
}

// GetScheduleByToken retrieves a schedule by its public share token. Unknown
// tokens map to ErrNotFound without distinguishing near-misses.
func (r *ScheduleRepository) GetScheduleByToken(ctx context.Context, token string) (persistence.SessionSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM session_schedules WHERE share_token = ?", scheduleColumns)
	return r.scanSchedule(r.pool.db.QueryRowContext(ctx, query, token))
}

// ListSchedulesForCampaign returns a campaign's schedules, newest first.
func (r *ScheduleRepository) ListSchedulesForCampaign(ctx context.Context, campaignID string) ([]persistence.SessionSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_schedules
		WHERE campaign_id = ? ORDER BY created_at DESC, id`, scheduleColumns)

	rows, err := r.pool.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var schedules []persistence.SessionSchedule
	for rows.Next() {
		schedule, err := r.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

// UpdateSchedule rewrites the mutable configuration of a schedule.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.SessionSchedule) error {
	query := `UPDATE session_schedules SET
		title = ?, start_date = ?, end_date = ?, include_weekdays = ?,
		weekday_window_start = ?, weekday_window_end = ?,
		weekend_window_start = ?, weekend_window_end = ?,
		slot_duration_hours = ?, slot_overlap_hours = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.pool.db.ExecContext(ctx, query,
		schedule.Title,
		schedule.StartDate.Format(timeslot.DateFormat),
		schedule.EndDate.Format(timeslot.DateFormat),
		schedule.IncludeWeekdays,
		schedule.WeekdayWindow.Start.String(),
		schedule.WeekdayWindow.End.String(),
		schedule.WeekendWindow.Start.String(),
		schedule.WeekendWindow.End.String(),
		schedule.DurationHours,
		schedule.OverlapHours,
		schedule.UpdatedAt.UTC().Format(time.RFC3339),
		schedule.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// TransitionStatus performs the conditional check-and-set on the lifecycle
// column. Exactly one concurrent caller can move a schedule out of a given
// state; the rest observe ErrStaleStatus.
func (r *ScheduleRepository) TransitionStatus(ctx context.Context, scheduleID, fromStatus, toStatus string) error {
	return transitionStatus(ctx, r.pool.db, scheduleID, fromStatus, toStatus)
}

// DeleteSchedule removes a schedule and, via cascading constraints, its
// responses and any committed session.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM session_schedules WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func transitionStatus(ctx context.Context, db execer, scheduleID, fromStatus, toStatus string) error {
	query := `UPDATE session_schedules SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query,
		toStatus,
		time.Now().UTC().Format(time.RFC3339),
		scheduleID,
		fromStatus,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrStaleStatus
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ScheduleRepository) scanSchedule(row rowScanner) (persistence.SessionSchedule, error) {
	var (
		schedule                             persistence.SessionSchedule
		startDate, endDate                   string
		wdStart, wdEnd, weStart, weEnd       string
		createdAt, updatedAt                 string
	)

	err := row.Scan(
		&schedule.ID,
		&schedule.CampaignID,
		&schedule.OwnerID,
		&schedule.Title,
		&schedule.ShareToken,
		&startDate,
		&endDate,
		&schedule.IncludeWeekdays,
		&wdStart,
		&wdEnd,
		&weStart,
		&weEnd,
		&schedule.DurationHours,
		&schedule.OverlapHours,
		&schedule.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.SessionSchedule{}, mapError(err)
	}

	if schedule.StartDate, err = time.Parse(timeslot.DateFormat, startDate); err != nil {
		return persistence.SessionSchedule{}, fmt.Errorf("sqlite: parse start_date: %w", err)
	}
	if schedule.EndDate, err = time.Parse(timeslot.DateFormat, endDate); err != nil {
		return persistence.SessionSchedule{}, fmt.Errorf("sqlite: parse end_date: %w", err)
	}
	if schedule.WeekdayWindow, err = parseWindow(wdStart, wdEnd); err != nil {
		return persistence.SessionSchedule{}, err
	}
	if schedule.WeekendWindow, err = parseWindow(weStart, weEnd); err != nil {
		return persistence.SessionSchedule{}, err
	}
	if schedule.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.SessionSchedule{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if schedule.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.SessionSchedule{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return schedule, nil
}

func parseWindow(start, end string) (timeslot.Window, error) {
	startTime, err := timeslot.ParseTimeOfDay(start)
	if err != nil {
		return timeslot.Window{}, fmt.Errorf("sqlite: parse window start: %w", err)
	}
	endTime, err := timeslot.ParseTimeOfDay(end)
	if err != nil {
		return timeslot.Window{}, fmt.Errorf("sqlite: parse window end: %w", err)
	}
	return timeslot.Window{Start: startTime, End: endTime}, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
