package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// OrganizerRepository implements persistence.OrganizerRepository using SQLite.
type OrganizerRepository struct {
	pool *ConnectionPool
}

// NewOrganizerRepository creates a new SQLite organizer repository.
func NewOrganizerRepository(pool *ConnectionPool) *OrganizerRepository {
	return &OrganizerRepository{pool: pool}
}

const organizerColumns = `id, email, display_name, password_hash, created_at, updated_at`

// CreateOrganizer inserts a new organizer account.
func (r *OrganizerRepository) CreateOrganizer(ctx context.Context, organizer persistence.Organizer) error {
	query := fmt.Sprintf(`INSERT INTO organizers (%s) VALUES (?, ?, ?, ?, ?, ?)`, organizerColumns)
	_, err := r.pool.db.ExecContext(ctx, query,
		organizer.ID,
		normalizeEmail(organizer.Email),
		organizer.DisplayName,
		organizer.PasswordHash,
		organizer.CreatedAt.UTC().Format(time.RFC3339),
		organizer.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetOrganizer retrieves an organizer by ID.
func (r *OrganizerRepository) GetOrganizer(ctx context.Context, id string) (persistence.Organizer, error) {
	query := fmt.Sprintf("SELECT %s FROM organizers WHERE id = ?", organizerColumns)
	return scanOrganizer(r.pool.db.QueryRowContext(ctx, query, id))
}

// GetOrganizerByEmail retrieves an organizer by normalized email address.
func (r *OrganizerRepository) GetOrganizerByEmail(ctx context.Context, email string) (persistence.Organizer, error) {
	query := fmt.Sprintf("SELECT %s FROM organizers WHERE email = ?", organizerColumns)
	return scanOrganizer(r.pool.db.QueryRowContext(ctx, query, normalizeEmail(email)))
}

// UpdateOrganizer rewrites an organizer's mutable fields.
func (r *OrganizerRepository) UpdateOrganizer(ctx context.Context, organizer persistence.Organizer) error {
	query := `UPDATE organizers SET email = ?, display_name = ?, password_hash = ?, updated_at = ? WHERE id = ?`
	result, err := r.pool.db.ExecContext(ctx, query,
		normalizeEmail(organizer.Email),
		organizer.DisplayName,
		organizer.PasswordHash,
		organizer.UpdatedAt.UTC().Format(time.RFC3339),
		organizer.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanOrganizer(row rowScanner) (persistence.Organizer, error) {
	var (
		organizer            persistence.Organizer
		createdAt, updatedAt string
	)

	err := row.Scan(
		&organizer.ID,
		&organizer.Email,
		&organizer.DisplayName,
		&organizer.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Organizer{}, mapError(err)
	}

	if organizer.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Organizer{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if organizer.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Organizer{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return organizer, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
