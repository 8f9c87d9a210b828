package unfreeze

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/logger"
	"github.com/fraudguard/riskengine/pkg/models"
	redispkg "github.com/fraudguard/riskengine/pkg/redis"
)

const (
	challengeKeyPrefix = "unfreeze:challenge:"
	codeDigits         = 6

	// DefaultChallengeTTL bounds how long an issued code stays valid.
	DefaultChallengeTTL = 5 * time.Minute
)

// challenge is the redis payload for a pending unfreeze verification.
// Only the bcrypt hash of the code is stored.
type challenge struct {
	SubjectID string         `json:"subject_id"`
	Channel   models.Channel `json:"channel"`
	CodeHash  string         `json:"code_hash"`
	Via       string         `json:"via"`
	IssuedAt  time.Time      `json:"issued_at"`
}

// Service issues and verifies the re-verification challenges that gate
// unfreezing a channel. Challenges are single-use and expire with their
// redis TTL.
type Service struct {
	redis   *redispkg.Client
	senders map[string]Sender
	ttl     time.Duration
}

// NewService creates an unfreeze service. senders maps a dispatch
// channel name ("sms", "email") to its Sender.
func NewService(redisClient *redispkg.Client, senders map[string]Sender, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &Service{redis: redisClient, senders: senders, ttl: ttl}
}

// Request opens a challenge for the subject and dispatches a fresh code
// over the requested channel. It returns the challenge id the caller
// must present together with the code.
func (s *Service) Request(ctx context.Context, subjectID string, channel models.Channel, via string) (string, error) {
	sender, ok := s.senders[via]
	if !ok {
		return "", common.NewValidationError(fmt.Sprintf("unsupported verification channel %q", via))
	}

	code, err := generateCode()
	if err != nil {
		return "", common.WrapInternal("generating verification code", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", common.WrapInternal("hashing verification code", err)
	}

	challengeID := uuid.New().String()
	payload, err := json.Marshal(challenge{
		SubjectID: subjectID,
		Channel:   channel,
		CodeHash:  string(hash),
		Via:       via,
		IssuedAt:  time.Now(),
	})
	if err != nil {
		return "", common.WrapInternal("encoding challenge", err)
	}

	if err := s.redis.SetWithExpiration(ctx, challengeKey(challengeID), payload, s.ttl); err != nil {
		return "", common.WrapInternal("storing challenge", err)
	}

	if err := sender.Send(ctx, subjectID, code); err != nil {
		// A stored challenge nobody received is useless; drop it so the
		// caller can retry with a fresh one.
		if delErr := s.redis.Delete(ctx, challengeKey(challengeID)); delErr != nil {
			logger.WithContext(ctx).Warn("failed to clean up undelivered challenge",
				zap.String("challenge_id", challengeID),
				zap.Error(delErr))
		}
		return "", common.WrapInternal("dispatching verification code", err)
	}

	logger.WithContext(ctx).Info("unfreeze challenge issued",
		zap.String("subject_id", subjectID),
		zap.String("channel", string(channel)),
		zap.String("via", via))

	return challengeID, nil
}

// Confirm verifies the code against the stored challenge. On success the
// challenge is consumed and the subject and channel it was issued for
// are returned.
func (s *Service) Confirm(ctx context.Context, challengeID, code string) (string, models.Channel, error) {
	raw, err := s.redis.GetString(ctx, challengeKey(challengeID))
	if err != nil {
		if redispkg.IsNil(err) {
			return "", "", common.NewVerificationError("challenge not found or expired")
		}
		return "", "", common.WrapInternal("loading challenge", err)
	}

	var ch challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return "", "", common.WrapInternal("decoding challenge", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)); err != nil {
		return "", "", common.NewVerificationError("verification code mismatch")
	}

	// Single use: consume before reporting success.
	if err := s.redis.Delete(ctx, challengeKey(challengeID)); err != nil {
		return "", "", common.WrapInternal("consuming challenge", err)
	}

	return ch.SubjectID, ch.Channel, nil
}

func challengeKey(id string) string {
	return challengeKeyPrefix + id
}

// generateCode produces a uniformly random fixed-width numeric code.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
