package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fraudguard/riskengine/pkg/models"
)

var (
	eventsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskengine_events_evaluated_total",
			Help: "Total number of events run through the evaluation pipeline",
		},
		[]string{"risk_level"},
	)

	freezesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "riskengine_channel_freezes_total",
			Help: "Total number of channel freezes applied by the policy layer",
		},
	)

	unfreezesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "riskengine_channel_unfreezes_total",
			Help: "Total number of channels released after verified challenges",
		},
	)

	riskScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskengine_composite_score",
			Help:    "Distribution of composite risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

func observeDecision(decision *models.Decision) {
	eventsEvaluated.WithLabelValues(decision.RiskLevel).Inc()
	riskScores.Observe(decision.RiskScore)
	if decision.Froze {
		freezesTotal.Inc()
	}
}
