package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertStatus tracks the review lifecycle of a raised alert.
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// Alert records a risk breach raised during event evaluation.
type Alert struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	SubjectID string      `json:"subject_id" db:"subject_id"`
	EventID   uuid.UUID   `json:"event_id" db:"event_id"`
	Message   string      `json:"message" db:"message"`
	RiskScore float64     `json:"risk_score" db:"risk_score"`
	RiskLevel string      `json:"risk_level" db:"risk_level"`
	Froze     bool        `json:"froze" db:"froze"`
	Status    AlertStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
