package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker rejects an operation.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings are the tuning knobs for a circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// Operation is a unit of work executed through the breaker.
type Operation func(ctx context.Context) (interface{}, error)

// CircuitBreaker wraps a downstream call with failure tracking and an
// optional fallback for the open state.
type CircuitBreaker struct {
	name     string
	breaker  *gobreaker.CircuitBreaker
	fallback FallbackFunc
}

// NewCircuitBreaker builds a breaker from settings. A nil fallback means the
// caller receives ErrCircuitOpen directly.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	name := nextBreakerName(settings.Name)
	if fallback == nil {
		fallback = NoopFallback
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			recordBreakerStateChange(name, from, to)
		},
	})

	recordBreakerState(name, cb.State())

	return &CircuitBreaker{name: name, breaker: cb, fallback: fallback}
}

// Execute runs op through the breaker. When the breaker is open the fallback
// decides the result.
func (c *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	recordBreakerRequest(c.name)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	if err == nil {
		return result, nil
	}

	recordBreakerFailure(c.name)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		recordBreakerFallback(c.name)
		return c.fallback(ctx, ErrCircuitOpen)
	}

	return nil, err
}

// State returns the current breaker state.
func (c *CircuitBreaker) State() gobreaker.State {
	return c.breaker.State()
}

// Name returns the breaker's registered name.
func (c *CircuitBreaker) Name() string {
	return c.name
}
