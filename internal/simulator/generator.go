package simulator

import (
	"math/rand"
	"time"

	"github.com/fraudguard/riskengine/internal/risk"
	"github.com/fraudguard/riskengine/pkg/models"
)

// Generator produces deterministic event streams for load tests and
// demos. It is seeded explicitly and never used in the evaluation path.
type Generator struct {
	rng *rand.Rand

	locations []string
	devices   []string
	channels  []models.Channel
}

// NewGenerator creates a generator with a fixed seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		locations: []string{
			"Mumbai", "Delhi", "Bangalore", "Chennai", "Pune",
		},
		devices: []string{
			"device-1", "device-2", "device-3",
		},
		channels: []models.Channel{
			models.ChannelCard, models.ChannelOnline, models.ChannelATM,
		},
	}
}

// Baseline produces n unremarkable transactions for the subject: familiar
// locations and devices, daytime hours, amounts in a narrow band.
func (g *Generator) Baseline(subjectID string, n int, start time.Time) []risk.EventInput {
	events := make([]risk.EventInput, 0, n)
	for i := 0; i < n; i++ {
		at := start.AddDate(0, 0, i).Add(time.Duration(g.rng.Intn(8)) * time.Hour) // 09:00-16:00 span
		events = append(events, risk.EventInput{
			SubjectID: subjectID,
			Type:      models.EventTypeTransaction,
			Channel:   g.channels[g.rng.Intn(len(g.channels))],
			Amount:    100 + g.rng.Float64()*2,
			Location:  g.locations[g.rng.Intn(2)],
			DeviceID:  g.devices[g.rng.Intn(2)],
			Timestamp: at,
		})
	}
	return events
}

// Anomaly produces a single suspicious transaction for the subject: a
// never-seen location and device, a large amount, and a small-hours
// timestamp.
func (g *Generator) Anomaly(subjectID string, after time.Time) risk.EventInput {
	day := after.AddDate(0, 0, 1)
	at := time.Date(day.Year(), day.Month(), day.Day(), 3, g.rng.Intn(60), 0, 0, day.Location())
	return risk.EventInput{
		SubjectID: subjectID,
		Type:      models.EventTypeTransaction,
		Channel:   models.ChannelOnline,
		Amount:    5000 + g.rng.Float64()*5000,
		Location:  "Bucharest",
		DeviceID:  "device-unseen",
		Timestamp: at,
	}
}

// Burst produces n transactions packed into the given window, ending at
// end. Useful for exercising velocity rules.
func (g *Generator) Burst(subjectID string, n int, end time.Time, window time.Duration) []risk.EventInput {
	events := make([]risk.EventInput, 0, n)
	step := window / time.Duration(n+1)
	for i := 0; i < n; i++ {
		events = append(events, risk.EventInput{
			SubjectID: subjectID,
			Type:      models.EventTypeTransaction,
			Channel:   models.ChannelCard,
			Amount:    50 + g.rng.Float64()*20,
			Location:  g.locations[0],
			DeviceID:  g.devices[0],
			Timestamp: end.Add(-time.Duration(n-i) * step),
		})
	}
	return events
}
