package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/session-scheduler/internal/persistence"
	"github.com/example/session-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Organizers   persistence.OrganizerRepository
	AuthSessions persistence.AuthSessionRepository
	Campaigns    persistence.CampaignRepository
	Schedules    persistence.ScheduleRepository
	Responses    persistence.AvailabilityRepository
	Sessions     persistence.ScheduledSessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "scheduler.db")

	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Organizers:   sqlite.NewOrganizerRepository(pool),
		AuthSessions: sqlite.NewAuthSessionRepository(pool),
		Campaigns:    sqlite.NewCampaignRepository(pool),
		Schedules:    sqlite.NewScheduleRepository(pool),
		Responses:    sqlite.NewAvailabilityRepository(pool),
		Sessions:     sqlite.NewScheduledSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
