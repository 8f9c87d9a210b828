package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/models"
)

// Repository is the durable Postgres adapter for the event log. It satisfies
// the same contract as the in-memory store; deployments choose one in main.
type Repository struct {
	db *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new event repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Append inserts an event into the log.
func (r *Repository) Append(ctx context.Context, event *models.Event) error {
	var lat, lon *float64
	if event.Coordinates != nil {
		lat = &event.Coordinates.Latitude
		lon = &event.Coordinates.Longitude
	}

	query := `
		INSERT INTO events (
			id, subject_id, type, channel, amount, latitude, longitude,
			location, device_id, timestamp, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.SubjectID,
		event.Type,
		event.Channel,
		event.Amount,
		lat,
		lon,
		event.Location,
		event.DeviceID,
		event.Timestamp,
		event.Status,
	)
	if err != nil {
		return common.WrapInternal("failed to append event", err)
	}

	return nil
}

// Recent returns the subject's last n events ordered newest first.
func (r *Repository) Recent(ctx context.Context, subjectID string, n int) ([]models.Event, error) {
	query := `
		SELECT id, subject_id, type, channel, amount, latitude, longitude,
		       location, device_id, timestamp, status
		FROM events
		WHERE subject_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, subjectID, n)
	if err != nil {
		return nil, common.WrapInternal("failed to query recent events", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// All returns the subject's full log, oldest first.
func (r *Repository) All(ctx context.Context, subjectID string) ([]models.Event, error) {
	query := `
		SELECT id, subject_id, type, channel, amount, latitude, longitude,
		       location, device_id, timestamp, status
		FROM events
		WHERE subject_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, common.WrapInternal("failed to query events", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Get returns a single event by id.
func (r *Repository) Get(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	query := `
		SELECT id, subject_id, type, channel, amount, latitude, longitude,
		       location, device_id, timestamp, status
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(r.db.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError(fmt.Sprintf("event %s not found", eventID))
		}
		return nil, common.WrapInternal("failed to load event", err)
	}

	return event, nil
}

// UpdateStatus applies the terminal status transition, guarding against
// double transitions in the same statement.
func (r *Repository) UpdateStatus(ctx context.Context, eventID uuid.UUID, status models.EventStatus) (*models.Event, error) {
	if !status.Terminal() {
		return nil, common.NewValidationError(fmt.Sprintf("status %q is not terminal", status))
	}

	query := `
		UPDATE events
		SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING id, subject_id, type, channel, amount, latitude, longitude,
		          location, device_id, timestamp, status
	`

	event, err := scanEvent(r.db.QueryRow(ctx, query, eventID, status))
	if err == nil {
		return event, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, common.WrapInternal("failed to update event status", err)
	}

	// No row updated: either unknown id or already terminal.
	if _, getErr := r.Get(ctx, eventID); getErr != nil {
		return nil, getErr
	}

	return nil, common.NewInvalidTransitionError(fmt.Sprintf("event %s is already terminal", eventID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	var lat, lon *float64

	err := row.Scan(
		&event.ID,
		&event.SubjectID,
		&event.Type,
		&event.Channel,
		&event.Amount,
		&lat,
		&lon,
		&event.Location,
		&event.DeviceID,
		&event.Timestamp,
		&event.Status,
	)
	if err != nil {
		return nil, err
	}

	if lat != nil && lon != nil {
		event.Coordinates = &models.Coordinates{Latitude: *lat, Longitude: *lon}
	}

	return &event, nil
}

func scanEvents(rows pgx.Rows) ([]models.Event, error) {
	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			continue
		}
		events = append(events, *event)
	}

	return events, rows.Err()
}
