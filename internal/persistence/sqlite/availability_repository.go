package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// AvailabilityRepository implements persistence.AvailabilityRepository using
// SQLite. Per-date selections are stored as a JSON object column, mirroring
// how the responses arrive and leave over the wire.
type AvailabilityRepository struct {
	pool *ConnectionPool
}

// NewAvailabilityRepository creates a new SQLite availability repository.
func NewAvailabilityRepository(pool *ConnectionPool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

const responseColumns = `id, schedule_id, email, player_name, character_name, selections, created_at, updated_at`

// CreateResponse inserts a new respondent record.
func (r *AvailabilityRepository) CreateResponse(ctx context.Context, response persistence.AvailabilityResponse) error {
	selections, err := encodeSelections(response.Selections)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO availability_responses (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, responseColumns)
	_, err = r.pool.db.ExecContext(ctx, query,
		response.ID,
		response.ScheduleID,
		normalizeEmail(response.Email),
		response.PlayerName,
		response.CharacterName,
		selections,
		response.CreatedAt.UTC().Format(time.RFC3339),
		response.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetResponse retrieves a respondent's record by (schedule, email).
func (r *AvailabilityRepository) GetResponse(ctx context.Context, scheduleID, email string) (persistence.AvailabilityResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_responses
		WHERE schedule_id = ? AND email = ?`, responseColumns)
	return scanResponse(r.pool.db.QueryRowContext(ctx, query, scheduleID, normalizeEmail(email)))
}

// ListResponsesForSchedule returns every response recorded for a schedule,
// most recently updated first.
func (r *AvailabilityRepository) ListResponsesForSchedule(ctx context.Context, scheduleID string) ([]persistence.AvailabilityResponse, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_responses
		WHERE schedule_id = ? ORDER BY updated_at DESC, id`, responseColumns)

	rows, err := r.pool.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var responses []persistence.AvailabilityResponse
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

// UpdateResponseIdentity updates the display and character names.
func (r *AvailabilityRepository) UpdateResponseIdentity(ctx context.Context, responseID, playerName, characterName string, updatedAt time.Time) error {
	query := `UPDATE availability_responses
		SET player_name = ?, character_name = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.pool.db.ExecContext(ctx, query,
		playerName, characterName, updatedAt.UTC().Format(time.RFC3339), responseID)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// MergeSelections replaces the stored slot lists for the dates present in
// selections, leaving other dates untouched. The read and write happen in one
// transaction so concurrent submissions see each other's committed state.
func (r *AvailabilityRepository) MergeSelections(ctx context.Context, responseID string, selections map[string][]string, updatedAt time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		current, err := selectionsForUpdate(tx, responseID)
		if err != nil {
			return err
		}
		for date, slots := range selections {
			if len(slots) == 0 {
				delete(current, date)
				continue
			}
			current[date] = append([]string(nil), slots...)
		}
		return writeSelections(tx, responseID, current, updatedAt)
	})
}

// ToggleSlot flips one slot on one date, reading the latest persisted mapping
// inside the transaction, and reports whether the slot ended up selected.
func (r *AvailabilityRepository) ToggleSlot(ctx context.Context, responseID, date, label string, updatedAt time.Time) (bool, error) {
	var selected bool
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		current, err := selectionsForUpdate(tx, responseID)
		if err != nil {
			return err
		}

		slots := current[date]
		removed := slots[:0:0]
		for _, slot := range slots {
			if slot != label {
				removed = append(removed, slot)
			}
		}
		if len(removed) == len(slots) {
			// Not present: select it.
			current[date] = append(append([]string(nil), slots...), label)
			selected = true
		} else {
			if len(removed) == 0 {
				delete(current, date)
			} else {
				current[date] = removed
			}
			selected = false
		}
		return writeSelections(tx, responseID, current, updatedAt)
	})
	return selected, err
}

// DeleteResponse removes a respondent's record. Organizer housekeeping only.
func (r *AvailabilityRepository) DeleteResponse(ctx context.Context, responseID string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM availability_responses WHERE id = ?", responseID)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

func selectionsForUpdate(tx *sql.Tx, responseID string) (map[string][]string, error) {
	var raw string
	err := tx.QueryRow("SELECT selections FROM availability_responses WHERE id = ?", responseID).Scan(&raw)
	if err != nil {
		return nil, mapError(err)
	}
	return decodeSelections(raw)
}

func writeSelections(tx *sql.Tx, responseID string, selections map[string][]string, updatedAt time.Time) error {
	encoded, err := encodeSelections(selections)
	if err != nil {
		return err
	}
	_, err = tx.Exec("UPDATE availability_responses SET selections = ?, updated_at = ? WHERE id = ?",
		encoded, updatedAt.UTC().Format(time.RFC3339), responseID)
	return mapError(err)
}

func encodeSelections(selections map[string][]string) (string, error) {
	if selections == nil {
		selections = map[string][]string{}
	}
	encoded, err := json.Marshal(selections)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode selections: %w", err)
	}
	return string(encoded), nil
}

func decodeSelections(raw string) (map[string][]string, error) {
	selections := make(map[string][]string)
	if raw == "" {
		return selections, nil
	}
	if err := json.Unmarshal([]byte(raw), &selections); err != nil {
		return nil, fmt.Errorf("sqlite: decode selections: %w", err)
	}
	return selections, nil
}

func scanResponse(row rowScanner) (persistence.AvailabilityResponse, error) {
	var (
		response             persistence.AvailabilityResponse
		selections           string
		createdAt, updatedAt string
	)

	err := row.Scan(
		&response.ID,
		&response.ScheduleID,
		&response.Email,
		&response.PlayerName,
		&response.CharacterName,
		&selections,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.AvailabilityResponse{}, mapError(err)
	}

	if response.Selections, err = decodeSelections(selections); err != nil {
		return persistence.AvailabilityResponse{}, err
	}
	if response.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.AvailabilityResponse{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if response.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.AvailabilityResponse{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return response, nil
}
