package risk

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraudguard/riskengine/internal/geofence"
	"github.com/fraudguard/riskengine/internal/history"
	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/logger"
	"github.com/fraudguard/riskengine/pkg/models"
	"github.com/fraudguard/riskengine/pkg/validation"
)

const (
	lockShards = 64

	// movementWindow caps the per-subject location samples retained for
	// movement-pattern analysis.
	movementWindow = 10
)

// UnfreezeService issues and verifies the re-verification challenges that
// gate unfreezing a channel.
type UnfreezeService interface {
	Request(ctx context.Context, subjectID string, channel models.Channel, via string) (string, error)
	Confirm(ctx context.Context, challengeID, code string) (subjectID string, channel models.Channel, err error)
}

// AlertSink receives alerts raised during evaluation. Delivery failures
// are the sink's concern; evaluation never fails because of them.
type AlertSink interface {
	Raise(ctx context.Context, alert *models.Alert) error
}

// EventInput is the caller-supplied portion of an event. The engine
// assigns id and status.
type EventInput struct {
	SubjectID   string              `json:"subject_id" binding:"required"`
	Type        models.EventType    `json:"type" binding:"required"`
	Channel     models.Channel      `json:"channel"`
	Amount      float64             `json:"amount"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
	Location    string              `json:"location"`
	DeviceID    string              `json:"device_id"`
	Timestamp   time.Time           `json:"timestamp" binding:"required"`
}

// Engine owns per-subject history and account state and runs the full
// evaluation pipeline on every submitted event. Appending an event and
// applying its freeze decision are atomic per subject; distinct subjects
// evaluate in parallel.
type Engine struct {
	store    history.Store
	zones    *geofence.Index
	assessor *geofence.Assessor
	rules    []SecurityRule
	unfreeze UnfreezeService
	alerts   AlertSink

	locks [lockShards]sync.Mutex

	mu       sync.RWMutex
	statuses map[string]*models.AccountStatus
	samples  map[string][]geofence.Sample
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithUnfreezeService wires the challenge flow used by RequestUnfreeze
// and ConfirmUnfreeze.
func WithUnfreezeService(svc UnfreezeService) Option {
	return func(e *Engine) { e.unfreeze = svc }
}

// WithAlertSink wires a destination for raised alerts.
func WithAlertSink(sink AlertSink) Option {
	return func(e *Engine) { e.alerts = sink }
}

// WithRules replaces the default rule set.
func WithRules(rules []SecurityRule) Option {
	return func(e *Engine) { e.rules = rules }
}

// NewEngine builds an engine over the given event store and zone index.
func NewEngine(store history.Store, zones *geofence.Index, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		zones:    zones,
		assessor: geofence.NewAssessor(zones),
		rules:    DefaultRules(),
		statuses: make(map[string]*models.AccountStatus),
		samples:  make(map[string][]geofence.Sample),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lockFor(subjectID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(subjectID))
	return &e.locks[h.Sum32()%lockShards]
}

// SubmitEvent validates and records the event, evaluates it against the
// subject's prior history, and applies the freeze decision. The returned
// decision carries the factor breakdown, rule score, composite score and
// alert text.
func (e *Engine) SubmitEvent(ctx context.Context, input EventInput) (*models.Event, *models.Decision, error) {
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}

	event := &models.Event{
		ID:          uuid.New(),
		SubjectID:   input.SubjectID,
		Type:        input.Type,
		Channel:     input.Channel,
		Amount:      input.Amount,
		Coordinates: input.Coordinates,
		Location:    input.Location,
		DeviceID:    input.DeviceID,
		Timestamp:   input.Timestamp,
		Status:      models.EventStatusPending,
	}

	lock := e.lockFor(input.SubjectID)
	lock.Lock()
	defer lock.Unlock()

	prior, err := e.store.All(ctx, input.SubjectID)
	if err != nil {
		return nil, nil, common.WrapInternal("loading subject history", err)
	}
	if err := e.store.Append(ctx, event); err != nil {
		return nil, nil, err
	}

	factors := EvaluateFactors(event, prior)
	ruleScore := EvaluateRules(event, prior, e.rules)
	composite := CompositeScore(factors)
	level := LevelForScore(composite)
	froze := ShouldFreeze(composite)
	alertMsg := AlertMessage(factors)

	decision := &models.Decision{
		EventID:     event.ID,
		SubjectID:   event.SubjectID,
		Factors:     factors,
		RuleScore:   ruleScore,
		RiskScore:   composite,
		RiskLevel:   string(level),
		Froze:       froze,
		Alert:       alertMsg,
		EvaluatedAt: time.Now(),
	}

	e.applyDecision(event, decision)
	observeDecision(decision)

	if e.alerts != nil && (froze || alertMsg != "") {
		alert := &models.Alert{
			ID:        uuid.New(),
			SubjectID: event.SubjectID,
			EventID:   event.ID,
			Message:   alertMsg,
			RiskScore: composite,
			RiskLevel: string(level),
			Froze:     froze,
			Status:    models.AlertStatusOpen,
			CreatedAt: time.Now(),
		}
		if err := e.alerts.Raise(ctx, alert); err != nil {
			logger.WithContext(ctx).Error("failed to raise alert",
				zap.String("subject_id", event.SubjectID),
				zap.Error(err))
		}
	}

	return event, decision, nil
}

// applyDecision updates the subject's account status. Freezing an
// already-frozen channel is a no-op.
func (e *Engine) applyDecision(event *models.Event, decision *models.Decision) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := e.statusLocked(event.SubjectID)
	status.CurrentRiskLevel = decision.RiskLevel
	if decision.Froze && event.Channel != "" && !status.Frozen(event.Channel) {
		status.FrozenChannels = append(status.FrozenChannels, event.Channel)
		status.IsActive = false
		status.LastUpdated = time.Now()
	}
}

// statusLocked returns the live status record, creating a default active
// one for an unseen subject. Caller holds e.mu.
func (e *Engine) statusLocked(subjectID string) *models.AccountStatus {
	status, ok := e.statuses[subjectID]
	if !ok {
		status = &models.AccountStatus{
			SubjectID:        subjectID,
			IsActive:         true,
			FrozenChannels:   []models.Channel{},
			CurrentRiskLevel: string(RiskLevelLow),
			LastUpdated:      time.Now(),
		}
		e.statuses[subjectID] = status
	}
	return status
}

// Approve marks a pending event approved.
func (e *Engine) Approve(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return e.store.UpdateStatus(ctx, eventID, models.EventStatusApproved)
}

// Block marks a pending event blocked.
func (e *Engine) Block(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return e.store.UpdateStatus(ctx, eventID, models.EventStatusBlocked)
}

// GetAccountStatus returns a copy of the subject's protection state. An
// unseen subject reports as active with no frozen channels.
func (e *Engine) GetAccountStatus(subjectID string) models.AccountStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := e.statusLocked(subjectID)
	copied := *status
	copied.FrozenChannels = append([]models.Channel{}, status.FrozenChannels...)
	return copied
}

// RequestUnfreeze opens a verification challenge for a frozen channel.
func (e *Engine) RequestUnfreeze(ctx context.Context, subjectID string, channel models.Channel, via string) (string, error) {
	if e.unfreeze == nil {
		return "", common.NewInternalServerError("unfreeze service not configured")
	}
	if !validation.IsChannel(string(channel)) {
		return "", common.NewValidationError("unknown channel")
	}

	e.mu.RLock()
	status, ok := e.statuses[subjectID]
	frozen := ok && status.Frozen(channel)
	e.mu.RUnlock()
	if !frozen {
		return "", common.NewValidationError("channel is not frozen")
	}

	return e.unfreeze.Request(ctx, subjectID, channel, via)
}

// ConfirmUnfreeze verifies the challenge code and, on success, releases
// the channel it was issued for.
func (e *Engine) ConfirmUnfreeze(ctx context.Context, challengeID, code string) (models.AccountStatus, error) {
	if e.unfreeze == nil {
		return models.AccountStatus{}, common.NewInternalServerError("unfreeze service not configured")
	}

	subjectID, channel, err := e.unfreeze.Confirm(ctx, challengeID, code)
	if err != nil {
		return models.AccountStatus{}, err
	}

	lock := e.lockFor(subjectID)
	lock.Lock()
	defer lock.Unlock()

	e.mu.Lock()
	status := e.statusLocked(subjectID)
	remaining := status.FrozenChannels[:0]
	for _, frozen := range status.FrozenChannels {
		if frozen != channel {
			remaining = append(remaining, frozen)
		}
	}
	status.FrozenChannels = remaining
	status.IsActive = len(remaining) == 0
	status.LastUpdated = time.Now()
	copied := *status
	copied.FrozenChannels = append([]models.Channel{}, status.FrozenChannels...)
	e.mu.Unlock()

	unfreezesTotal.Inc()
	return copied, nil
}

// RegisterZone adds a geofence zone to the index.
func (e *Engine) RegisterZone(zone geofence.Zone) error {
	return e.zones.AddZone(zone)
}

// RemoveZone removes a geofence zone by id.
func (e *Engine) RemoveZone(id string) error {
	return e.zones.RemoveZone(id)
}

// AssessLocation scores a location sample against the zone index and the
// subject's recent movement, then records the sample for future
// assessments.
func (e *Engine) AssessLocation(subjectID string, point geofence.Point, at time.Time) geofence.Assessment {
	e.mu.Lock()
	recent := append([]geofence.Sample{}, e.samples[subjectID]...)
	e.mu.Unlock()

	assessment := e.assessor.Assess(point, at, recent)

	e.mu.Lock()
	samples := append(e.samples[subjectID], geofence.Sample{Point: point, Timestamp: at})
	if len(samples) > movementWindow {
		samples = samples[len(samples)-movementWindow:]
	}
	e.samples[subjectID] = samples
	e.mu.Unlock()

	return assessment
}

func validateInput(input EventInput) error {
	if input.SubjectID == "" {
		return common.NewValidationError("subject_id is required")
	}
	if input.Timestamp.IsZero() {
		return common.NewValidationError("timestamp is required")
	}
	switch input.Type {
	case models.EventTypeTransaction:
		if input.Amount < 0 {
			return common.NewValidationError("amount must not be negative")
		}
		if input.Channel == "" || !validation.IsChannel(string(input.Channel)) {
			return common.NewValidationError("a valid channel is required for transactions")
		}
	case models.EventTypeLocation:
		if input.Coordinates == nil {
			return common.NewValidationError("coordinates are required for location events")
		}
	default:
		return common.NewValidationError("unknown event type")
	}
	return nil
}
