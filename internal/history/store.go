package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/models"
)

// Store is the append-only per-subject event log consumed by the
// evaluation pipeline.
type Store interface {
	Append(ctx context.Context, event *models.Event) error
	Recent(ctx context.Context, subjectID string, n int) ([]models.Event, error)
	All(ctx context.Context, subjectID string) ([]models.Event, error)
	Get(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, status models.EventStatus) (*models.Event, error)
}

// MemoryStore keeps each subject's events in insertion order in memory.
// Events are never removed or mutated after append; only the status field
// transitions, exactly once, to a terminal value.
type MemoryStore struct {
	mu       sync.RWMutex
	bySubject map[string][]*models.Event
	byID      map[uuid.UUID]*models.Event
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bySubject: make(map[string][]*models.Event),
		byID:      make(map[uuid.UUID]*models.Event),
	}
}

var _ Store = (*MemoryStore)(nil)

// Append adds an event to its subject's log.
func (s *MemoryStore) Append(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		return common.NewValidationError("event id is required")
	}
	if event.SubjectID == "" {
		return common.NewValidationError("subject id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.ID]; exists {
		return common.NewValidationError(fmt.Sprintf("event %s already appended", event.ID))
	}

	stored := *event
	s.bySubject[event.SubjectID] = append(s.bySubject[event.SubjectID], &stored)
	s.byID[event.ID] = &stored

	return nil
}

// Recent returns the subject's last n events, newest first.
func (s *MemoryStore) Recent(ctx context.Context, subjectID string, n int) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.bySubject[subjectID]
	result := make([]models.Event, 0, n)
	for i := len(events) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, *events[i])
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Timestamp.After(result[b].Timestamp)
	})

	return result, nil
}

// All returns the subject's full log in insertion order.
func (s *MemoryStore) All(ctx context.Context, subjectID string) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.bySubject[subjectID]
	result := make([]models.Event, len(events))
	for i, event := range events {
		result[i] = *event
	}

	return result, nil
}

// Get returns a single event by id.
func (s *MemoryStore) Get(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.byID[eventID]
	if !ok {
		return nil, common.NewNotFoundError(fmt.Sprintf("event %s not found", eventID))
	}

	copied := *event
	return &copied, nil
}

// UpdateStatus applies the terminal status transition to an event.
// Unknown ids fail with NotFound; repeated transitions fail with
// InvalidTransition.
func (s *MemoryStore) UpdateStatus(ctx context.Context, eventID uuid.UUID, status models.EventStatus) (*models.Event, error) {
	if !status.Terminal() {
		return nil, common.NewValidationError(fmt.Sprintf("status %q is not terminal", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.byID[eventID]
	if !ok {
		return nil, common.NewNotFoundError(fmt.Sprintf("event %s not found", eventID))
	}

	if event.Status.Terminal() {
		return nil, common.NewInvalidTransitionError(
			fmt.Sprintf("event %s is already %s", eventID, event.Status))
	}

	event.Status = status
	copied := *event
	return &copied, nil
}
