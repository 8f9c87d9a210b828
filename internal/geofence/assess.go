package geofence

import (
	"fmt"
	"math"
	"time"
)

const (
	baseScore = 20.0

	farDistanceKm     = 500.0
	unusualDistanceKm = 100.0

	businessHoursStart = 8
	businessHoursEnd   = 20

	// Movement heuristics look at the most recent samples only.
	movementWindow = 5

	erraticBearingMin = 45.0
	erraticBearingMax = 315.0
	erraticRatio      = 0.6

	// Faster than any commercial flight; implies spoofed coordinates.
	impossibleSpeedKmh = 900.0
)

// Sample is one observed location with its timestamp.
type Sample struct {
	Point     Point
	Timestamp time.Time
}

// RiskLevel buckets a numeric score for reporting.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// LevelForScore maps a 0-100 score to its reporting bucket.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score < 30:
		return RiskLow
	case score < 55:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Assessment is the outcome of a location risk evaluation.
type Assessment struct {
	Score   float64   `json:"score"`
	Level   RiskLevel `json:"level"`
	Zone    *Zone     `json:"zone,omitempty"`
	Reasons []string  `json:"reasons"`
}

// Assessor scores locations against the zone index and a subject's
// movement history.
type Assessor struct {
	zones *Index
}

// NewAssessor creates an assessor over the given zone index.
func NewAssessor(zones *Index) *Assessor {
	return &Assessor{zones: zones}
}

// Assess scores a location observed at the given time. History is the
// subject's prior samples, oldest first. The result is always in [0, 100].
func (a *Assessor) Assess(point Point, at time.Time, history []Sample) Assessment {
	score := baseScore
	var reasons []string

	zone := a.zones.ContainingZone(point)
	if zone != nil {
		score += zone.penalty()
		reasons = append(reasons, fmt.Sprintf("inside %s zone %q", zone.Type, zone.Name))
	}

	if len(history) > 0 {
		nearest := math.MaxFloat64
		for _, sample := range history {
			if d := Distance(sample.Point, point); d < nearest {
				nearest = d
			}
		}
		switch {
		case nearest > farDistanceKm:
			score += 30
			reasons = append(reasons, fmt.Sprintf("%.0f km from any known location", nearest))
		case nearest > unusualDistanceKm:
			score += 15
			reasons = append(reasons, fmt.Sprintf("%.0f km from nearest known location", nearest))
		}
	}

	hour := at.Hour()
	if hour < businessHoursStart || hour >= businessHoursEnd {
		score += 15
		reasons = append(reasons, fmt.Sprintf("activity outside business hours (%02d:00)", hour))
	}

	recent := history
	if len(recent) > movementWindow {
		recent = recent[len(recent)-movementWindow:]
	}

	if isErratic(recent, point) {
		score += 20
		reasons = append(reasons, "erratic movement pattern")
	}

	if speed, impossible := impossibleSpeed(recent, point, at); impossible {
		score += 25
		reasons = append(reasons, fmt.Sprintf("implied speed %.0f km/h", speed))
	}

	score = clamp(score, 0, 100)

	return Assessment{
		Score:   score,
		Level:   LevelForScore(score),
		Zone:    zone,
		Reasons: reasons,
	}
}

// isErratic reports whether the path through recent samples plus the current
// point reverses direction in most of its consecutive triples. A direction
// change counts when the bearing shifts by more than 45 degrees and less
// than 315, which excludes both straight travel and full wraparound.
func isErratic(recent []Sample, point Point) bool {
	path := make([]Point, 0, len(recent)+1)
	for _, sample := range recent {
		path = append(path, sample.Point)
	}
	path = append(path, point)

	if len(path) < 3 {
		return false
	}

	triples := 0
	erratic := 0
	for i := 0; i+2 < len(path); i++ {
		first := Bearing(path[i], path[i+1])
		second := Bearing(path[i+1], path[i+2])
		change := math.Abs(second - first)
		triples++
		if change > erraticBearingMin && change < erraticBearingMax {
			erratic++
		}
	}

	return float64(erratic)/float64(triples) > erraticRatio
}

// impossibleSpeed checks the leg from the most recent sample to the current
// point against the physically plausible ceiling.
func impossibleSpeed(recent []Sample, point Point, at time.Time) (float64, bool) {
	if len(recent) == 0 {
		return 0, false
	}

	last := recent[len(recent)-1]
	elapsed := at.Sub(last.Timestamp).Hours()
	if elapsed <= 0 {
		return 0, false
	}

	speed := Distance(last.Point, point) / elapsed
	return speed, speed > impossibleSpeedKmh
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
