package risk

import (
	"time"

	"github.com/fraudguard/riskengine/pkg/models"
)

// RuleType groups security rules by the behavior they watch for.
type RuleType string

const (
	RuleTypeVelocity RuleType = "velocity"
	RuleTypeAmount   RuleType = "amount"
	RuleTypeLocation RuleType = "location"
	RuleTypeDevice   RuleType = "device"
	RuleTypeTime     RuleType = "time"
)

// SecurityRule pairs a boolean condition with a weight. Rules are static
// configuration and must not be mutated after the engine is constructed.
type SecurityRule struct {
	ID        string
	Type      RuleType
	Condition func(event *models.Event, history []models.Event) bool
	Weight    float64
}

// EvaluateRules returns the average weight of the rules whose condition
// holds for the event, or 0 when no rule triggers. Averaging over the
// triggered subset keeps the score independent of how many rules happen
// to be configured.
func EvaluateRules(event *models.Event, history []models.Event, rules []SecurityRule) float64 {
	var sum float64
	triggered := 0
	for _, rule := range rules {
		if rule.Condition == nil {
			continue
		}
		if rule.Condition(event, history) {
			sum += rule.Weight
			triggered++
		}
	}
	if triggered == 0 {
		return 0
	}
	return sum / float64(triggered)
}

// DefaultRules is the standard rule set applied to every submitted event.
func DefaultRules() []SecurityRule {
	return []SecurityRule{
		{
			ID:     "rapid-succession",
			Type:   RuleTypeVelocity,
			Weight: 80,
			Condition: func(event *models.Event, history []models.Event) bool {
				windowStart := event.Timestamp.Add(-FrequencyWindow)
				count := 0
				for _, prior := range history {
					if !prior.Timestamp.Before(windowStart) && !prior.Timestamp.After(event.Timestamp) {
						count++
					}
				}
				return count >= 3
			},
		},
		{
			ID:     "amount-spike",
			Type:   RuleTypeAmount,
			Weight: 70,
			Condition: func(event *models.Event, history []models.Event) bool {
				if len(history) == 0 {
					return false
				}
				var sum float64
				for _, prior := range history {
					sum += prior.Amount
				}
				mean := sum / float64(len(history))
				return mean > 0 && event.Amount > mean*5
			},
		},
		{
			ID:     "unseen-location",
			Type:   RuleTypeLocation,
			Weight: 60,
			Condition: func(event *models.Event, history []models.Event) bool {
				if event.Location == "" {
					return false
				}
				for _, prior := range history {
					if prior.Location == event.Location {
						return false
					}
				}
				return len(history) > 0
			},
		},
		{
			ID:     "unseen-device",
			Type:   RuleTypeDevice,
			Weight: 50,
			Condition: func(event *models.Event, history []models.Event) bool {
				if event.DeviceID == "" {
					return false
				}
				for _, prior := range history {
					if prior.DeviceID == event.DeviceID {
						return false
					}
				}
				return len(history) > 0
			},
		},
		{
			ID:     "off-hours",
			Type:   RuleTypeTime,
			Weight: 40,
			Condition: func(event *models.Event, history []models.Event) bool {
				return quietHours(event.Timestamp)
			},
		},
	}
}

// quietHours reports whether the interval around midnight covers t.
func quietHours(t time.Time) bool {
	hour := t.Hour()
	return hour < 6 || hour >= 23
}
