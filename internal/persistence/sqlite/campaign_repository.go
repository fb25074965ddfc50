package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// CampaignRepository implements persistence.CampaignRepository using SQLite.
type CampaignRepository struct {
	pool *ConnectionPool
}

// NewCampaignRepository creates a new SQLite campaign repository.
func NewCampaignRepository(pool *ConnectionPool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

const campaignColumns = `id, owner_id, title, description, created_at, updated_at`

// CreateCampaign inserts a new campaign.
func (r *CampaignRepository) CreateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	query := fmt.Sprintf(`INSERT INTO campaigns (%s) VALUES (?, ?, ?, ?, ?, ?)`, campaignColumns)
	_, err := r.pool.db.ExecContext(ctx, query,
		campaign.ID,
		campaign.OwnerID,
		campaign.Title,
		nullableString(campaign.Description),
		campaign.CreatedAt.UTC().Format(time.RFC3339),
		campaign.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetCampaign retrieves a campaign by ID.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (persistence.Campaign, error) {
	query := fmt.Sprintf("SELECT %s FROM campaigns WHERE id = ?", campaignColumns)
	return scanCampaign(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListCampaignsByOwner returns an organizer's campaigns ordered by creation.
func (r *CampaignRepository) ListCampaignsByOwner(ctx context.Context, ownerID string) ([]persistence.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE owner_id = ? ORDER BY created_at, id`, campaignColumns)

	rows, err := r.pool.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var campaigns []persistence.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

// UpdateCampaign rewrites a campaign's mutable fields.
func (r *CampaignRepository) UpdateCampaign(ctx context.Context, campaign persistence.Campaign) error {
	query := `UPDATE campaigns SET title = ?, description = ?, updated_at = ? WHERE id = ?`
	result, err := r.pool.db.ExecContext(ctx, query,
		campaign.Title,
		nullableString(campaign.Description),
		campaign.UpdatedAt.UTC().Format(time.RFC3339),
		campaign.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteCampaign removes a campaign and cascades to its schedules.
func (r *CampaignRepository) DeleteCampaign(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func scanCampaign(row rowScanner) (persistence.Campaign, error) {
	var (
		campaign             persistence.Campaign
		description          sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&campaign.ID,
		&campaign.OwnerID,
		&campaign.Title,
		&description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Campaign{}, mapError(err)
	}

	if description.Valid {
		campaign.Description = &description.String
	}
	if campaign.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Campaign{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if campaign.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Campaign{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return campaign, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
