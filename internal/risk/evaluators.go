package risk

import (
	"math"
	"time"

	"github.com/fraudguard/riskengine/pkg/models"
)

const (
	// FrequencyWindow is the lookback applied when counting rapid-fire
	// events preceding the one under evaluation.
	FrequencyWindow = 300 * time.Second

	novelLocationScore   = 75.0
	neutralAmountScore   = 50.0
	unknownDeviceScore   = 50.0
	novelTimeScore       = 75.0
	locationDecayPerSeen = 10.0
	deviceDecayPerSeen   = 10.0
	timeDecayPerSeen     = 15.0
	amountZScale         = 25.0
)

// Factor names as they appear in alert messages.
const (
	FactorLocation    = "location"
	FactorAmount      = "amount"
	FactorFrequency   = "frequency"
	FactorDeviceTrust = "device_trust"
	FactorTimePattern = "time_pattern"
)

// Evaluator scores one risk dimension of an event against the subject's
// prior history. Implementations are stateless and side-effect free.
type Evaluator interface {
	Name() string
	Evaluate(event *models.Event, history []models.Event) float64
}

// EvaluateFactors runs all five evaluators and assembles the factor record.
// History is the subject's prior events, oldest first, excluding the event
// under evaluation.
func EvaluateFactors(event *models.Event, history []models.Event) models.RiskFactors {
	return models.RiskFactors{
		Location:    locationEvaluator{}.Evaluate(event, history),
		Amount:      amountEvaluator{}.Evaluate(event, history),
		Frequency:   frequencyEvaluator{}.Evaluate(event, history),
		DeviceTrust: deviceTrustEvaluator{}.Evaluate(event, history),
		TimePattern: timePatternEvaluator{}.Evaluate(event, history),
	}
}

// locationEvaluator penalizes locations the subject has never acted from.
// Repeated sightings of the same location decay the score toward zero.
type locationEvaluator struct{}

func (locationEvaluator) Name() string { return FactorLocation }

func (locationEvaluator) Evaluate(event *models.Event, history []models.Event) float64 {
	seen := 0
	for _, prior := range history {
		if prior.Location == event.Location {
			seen++
		}
	}
	if seen == 0 {
		return novelLocationScore
	}
	return math.Max(0, 100-locationDecayPerSeen*float64(seen))
}

// amountEvaluator scores how far the event's amount deviates from the
// subject's spending distribution. With no history there is nothing to
// compare against, so it returns a neutral midpoint.
type amountEvaluator struct{}

func (amountEvaluator) Name() string { return FactorAmount }

func (amountEvaluator) Evaluate(event *models.Event, history []models.Event) float64 {
	if len(history) == 0 {
		return neutralAmountScore
	}
	var sum float64
	for _, prior := range history {
		sum += prior.Amount
	}
	mean := sum / float64(len(history))

	var variance float64
	for _, prior := range history {
		diff := prior.Amount - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(history)))

	z := (event.Amount - mean) / math.Max(stddev, 1)
	return clampScore(z * amountZScale)
}

// frequencyEvaluator counts history events inside the lookback window
// ending at the event's timestamp and maps the count to a score band.
type frequencyEvaluator struct{}

func (frequencyEvaluator) Name() string { return FactorFrequency }

func (frequencyEvaluator) Evaluate(event *models.Event, history []models.Event) float64 {
	windowStart := event.Timestamp.Add(-FrequencyWindow)
	count := 0
	for _, prior := range history {
		if !prior.Timestamp.Before(windowStart) && !prior.Timestamp.After(event.Timestamp) {
			count++
		}
	}
	switch {
	case count >= 5:
		return 100
	case count >= 3:
		return 75
	case count >= 2:
		return 50
	default:
		return 25
	}
}

// deviceTrustEvaluator trusts devices the subject has used before. An
// event without a device identifier gets a neutral score.
type deviceTrustEvaluator struct{}

func (deviceTrustEvaluator) Name() string { return FactorDeviceTrust }

func (deviceTrustEvaluator) Evaluate(event *models.Event, history []models.Event) float64 {
	if event.DeviceID == "" {
		return unknownDeviceScore
	}
	seen := 0
	for _, prior := range history {
		if prior.DeviceID == event.DeviceID {
			seen++
		}
	}
	return 100 - math.Min(100, deviceDecayPerSeen*float64(seen))
}

// timePatternEvaluator checks whether the subject habitually acts during
// this hour of the day.
type timePatternEvaluator struct{}

func (timePatternEvaluator) Name() string { return FactorTimePattern }

func (timePatternEvaluator) Evaluate(event *models.Event, history []models.Event) float64 {
	hour := event.Timestamp.Hour()
	count := 0
	for _, prior := range history {
		if prior.Timestamp.Hour() == hour {
			count++
		}
	}
	if count == 0 {
		return novelTimeScore
	}
	return math.Max(0, 100-timeDecayPerSeen*float64(count))
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
