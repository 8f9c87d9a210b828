package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel represents a transaction medium that can be independently frozen
type Channel string

const (
	ChannelATM    Channel = "atm"
	ChannelOnline Channel = "online"
	ChannelCard   Channel = "card"
	ChannelCall   Channel = "call"
	ChannelEmail  Channel = "email"
)

// EventType distinguishes the kinds of reported subject activity
type EventType string

const (
	EventTypeTransaction EventType = "transaction"
	EventTypeLocation    EventType = "location"
)

// EventStatus represents an event's review status
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusBlocked  EventStatus = "blocked"
)

// Terminal reports whether the status permits no further transitions.
func (s EventStatus) Terminal() bool {
	return s == EventStatusApproved || s == EventStatusBlocked
}

// Coordinates is an optional WGS84 pair attached to location-bearing events
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Event is an immutable record of a reported subject action. Only Status
// may change after creation, exactly once, to a terminal value.
type Event struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	SubjectID   string       `json:"subject_id" db:"subject_id"`
	Type        EventType    `json:"type" db:"type"`
	Channel     Channel      `json:"channel" db:"channel"`
	Amount      float64      `json:"amount" db:"amount"`
	Coordinates *Coordinates `json:"coordinates,omitempty" db:"coordinates"`
	Location    string       `json:"location" db:"location"`
	DeviceID    string       `json:"device_id" db:"device_id"`
	Timestamp   time.Time    `json:"timestamp" db:"timestamp"`
	Status      EventStatus  `json:"status" db:"status"`
}

// RiskFactors are the per-dimension sub-scores computed for one event.
// Each is in [0, 100]; higher means riskier. Derived and ephemeral,
// recomputed per event, never stored.
type RiskFactors struct {
	Location    float64 `json:"location"`
	Amount      float64 `json:"amount"`
	Frequency   float64 `json:"frequency"`
	DeviceTrust float64 `json:"device_trust"`
	TimePattern float64 `json:"time_pattern"`
}

// AccountStatus is the per-subject protection state. Mutated only by the
// policy layer and the unfreeze flow.
type AccountStatus struct {
	SubjectID        string    `json:"subject_id"`
	IsActive         bool      `json:"is_active"`
	FrozenChannels   []Channel `json:"frozen_channels"`
	CurrentRiskLevel string    `json:"current_risk_level"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Frozen reports whether the channel is currently frozen.
func (a AccountStatus) Frozen(channel Channel) bool {
	for _, frozen := range a.FrozenChannels {
		if frozen == channel {
			return true
		}
	}
	return false
}

// Decision is the outcome of evaluating one event.
type Decision struct {
	EventID     uuid.UUID   `json:"event_id"`
	SubjectID   string      `json:"subject_id"`
	Factors     RiskFactors `json:"factors"`
	RuleScore   float64     `json:"rule_score"`
	RiskScore   float64     `json:"risk_score"`
	RiskLevel   string      `json:"risk_level"`
	Froze       bool        `json:"froze"`
	Alert       string      `json:"alert,omitempty"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}
