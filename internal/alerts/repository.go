package alerts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/models"
)

// Repository persists raised alerts for review workflows.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new alerts repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create stores a new alert.
func (r *Repository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (
			id, subject_id, event_id, message, risk_score, risk_level,
			froze, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		alert.ID,
		alert.SubjectID,
		alert.EventID,
		alert.Message,
		alert.RiskScore,
		alert.RiskLevel,
		alert.Froze,
		alert.Status,
		alert.CreatedAt,
	)
	if err != nil {
		return common.WrapInternal("inserting alert", err)
	}
	return nil
}

// GetByID retrieves a single alert.
func (r *Repository) GetByID(ctx context.Context, alertID uuid.UUID) (*models.Alert, error) {
	query := `
		SELECT id, subject_id, event_id, message, risk_score, risk_level,
		       froze, status, created_at
		FROM alerts
		WHERE id = $1
	`

	var alert models.Alert
	err := r.db.QueryRow(ctx, query, alertID).Scan(
		&alert.ID,
		&alert.SubjectID,
		&alert.EventID,
		&alert.Message,
		&alert.RiskScore,
		&alert.RiskLevel,
		&alert.Froze,
		&alert.Status,
		&alert.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("alert not found")
		}
		return nil, common.WrapInternal("loading alert", err)
	}
	return &alert, nil
}

// ListBySubject returns a page of the subject's alerts, newest first,
// along with the total count.
func (r *Repository) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*models.Alert, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE subject_id = $1`, subjectID,
	).Scan(&total); err != nil {
		return nil, 0, common.WrapInternal("counting alerts", err)
	}

	query := `
		SELECT id, subject_id, event_id, message, risk_score, risk_level,
		       froze, status, created_at
		FROM alerts
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, subjectID, limit, offset)
	if err != nil {
		return nil, 0, common.WrapInternal("listing alerts", err)
	}
	defer rows.Close()

	var result []*models.Alert
	for rows.Next() {
		var alert models.Alert
		if err := rows.Scan(
			&alert.ID,
			&alert.SubjectID,
			&alert.EventID,
			&alert.Message,
			&alert.RiskScore,
			&alert.RiskLevel,
			&alert.Froze,
			&alert.Status,
			&alert.CreatedAt,
		); err != nil {
			return nil, 0, common.WrapInternal("scanning alert", err)
		}
		result = append(result, &alert)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, common.WrapInternal("iterating alerts", err)
	}

	return result, total, nil
}

// UpdateStatus moves an alert through its review lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, alertID uuid.UUID, status models.AlertStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE alerts SET status = $2 WHERE id = $1`, alertID, status)
	if err != nil {
		return common.WrapInternal("updating alert status", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("alert not found")
	}
	return nil
}
