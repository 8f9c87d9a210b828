package risk

import (
	"strings"

	"github.com/fraudguard/riskengine/pkg/models"
)

// Composite weights. They sum to 1 so the composite stays in [0,100].
const (
	weightLocation    = 0.25
	weightAmount      = 0.30
	weightFrequency   = 0.20
	weightDeviceTrust = 0.15
	weightTimePattern = 0.10

	// FreezeThreshold is the composite score above which the event's
	// channel is frozen. The comparison is strict: a composite of
	// exactly the threshold does not freeze.
	FreezeThreshold = 70.0

	// FactorAlertThreshold is the per-factor score above which a factor
	// is named in the alert message.
	FactorAlertThreshold = 70.0
)

// RiskLevel buckets a composite score for reporting.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// LevelForScore maps a composite score to its reporting band.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score < 30:
		return RiskLevelLow
	case score < 55:
		return RiskLevelMedium
	case score < 75:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// CompositeScore aggregates the five factors into the single score that
// drives freeze decisions.
func CompositeScore(factors models.RiskFactors) float64 {
	return weightLocation*factors.Location +
		weightAmount*factors.Amount +
		weightFrequency*factors.Frequency +
		weightDeviceTrust*factors.DeviceTrust +
		weightTimePattern*factors.TimePattern
}

// ShouldFreeze reports whether the composite score mandates freezing the
// event's channel.
func ShouldFreeze(composite float64) bool {
	return composite > FreezeThreshold
}

// AlertMessage names every factor that individually exceeds the alert
// threshold, comma-joined in evaluation order. It returns the empty
// string when no factor does.
func AlertMessage(factors models.RiskFactors) string {
	var breached []string
	if factors.Location > FactorAlertThreshold {
		breached = append(breached, FactorLocation)
	}
	if factors.Amount > FactorAlertThreshold {
		breached = append(breached, FactorAmount)
	}
	if factors.Frequency > FactorAlertThreshold {
		breached = append(breached, FactorFrequency)
	}
	if factors.DeviceTrust > FactorAlertThreshold {
		breached = append(breached, FactorDeviceTrust)
	}
	if factors.TimePattern > FactorAlertThreshold {
		breached = append(breached, FactorTimePattern)
	}
	return strings.Join(breached, ", ")
}
