package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fraudguard/riskengine/pkg/logger"
	"github.com/fraudguard/riskengine/pkg/models"
)

// Publisher fans raised alerts out over NATS and optionally persists
// them. Publish failures are logged, never propagated into the
// evaluation path.
type Publisher struct {
	conn    *nats.Conn
	subject string
	repo    *Repository
}

// NewPublisher creates an alert publisher. conn and repo may each be
// nil; whichever is wired gets the alert.
func NewPublisher(conn *nats.Conn, subjectPrefix string, repo *Repository) *Publisher {
	return &Publisher{conn: conn, subject: subjectPrefix, repo: repo}
}

// Raise persists the alert and publishes it to
// <prefix>.<subject id>.
func (p *Publisher) Raise(ctx context.Context, alert *models.Alert) error {
	if p.repo != nil {
		if err := p.repo.Create(ctx, alert); err != nil {
			logger.WithContext(ctx).Error("failed to persist alert",
				zap.String("alert_id", alert.ID.String()),
				zap.Error(err))
		}
	}

	if p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subject, alert.SubjectID)
	if err := p.conn.Publish(subject, payload); err != nil {
		logger.WithContext(ctx).Error("failed to publish alert",
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("publishing alert: %w", err)
	}

	logger.WithContext(ctx).Info("alert published",
		zap.String("subject", subject),
		zap.String("subject_id", alert.SubjectID),
		zap.Float64("risk_score", alert.RiskScore),
		zap.Bool("froze", alert.Froze))
	return nil
}
