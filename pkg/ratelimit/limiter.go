package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fraudguard/riskengine/pkg/config"
)

// IdentityType distinguishes authenticated callers from anonymous ones.
type IdentityType int

const (
	IdentityAnonymous IdentityType = iota
	IdentityAuthenticated
)

// Rule is the effective limit applied to one endpoint/identity pair.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result describes the outcome of a rate-limit check.
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// Token-bucket check executed atomically in Redis. The bucket refills at
// limit/window tokens per second up to limit+burst capacity.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local capacity = rate + burst
local fill_rate = rate / window

local bucket = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

local delta = now - ts
if delta < 0 then delta = 0 end
tokens = tokens + delta * fill_rate
if tokens > capacity then tokens = capacity end

local allowed = 0
local retry_after = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry_after = (1 - tokens) / fill_rate
end

redis.call('HMSET', key, 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('EXPIRE', key, math.ceil(window * 2))

local reset_after = (capacity - tokens) / fill_rate
return {allowed, tostring(tokens), tostring(retry_after), tostring(reset_after)}
`

// Limiter applies per-identity token buckets stored in Redis.
type Limiter struct {
	client *redis.Client
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a limiter over the given Redis client.
func NewLimiter(client *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(tokenBucketScript),
		now:    time.Now,
	}
}

// WithNow overrides the clock. Used by tests.
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// RuleFor resolves the effective rule for an endpoint and identity type,
// applying endpoint overrides when configured.
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	limit := l.cfg.DefaultLimit
	burst := l.cfg.DefaultBurst
	if identity == IdentityAnonymous {
		limit = l.cfg.AnonymousLimit
		burst = l.cfg.AnonymousBurst
	}
	window := l.cfg.Window()

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		overrideLimit, overrideBurst := override.AuthenticatedLimit, override.AuthenticatedBurst
		if identity == IdentityAnonymous {
			overrideLimit, overrideBurst = override.AnonymousLimit, override.AnonymousBurst
		}
		if overrideLimit > 0 {
			limit = overrideLimit
		}
		if overrideBurst >= 0 {
			burst = overrideBurst
		}
		if override.WindowSeconds > 0 {
			window = time.Duration(override.WindowSeconds) * time.Second
		}
	}

	if burst < 0 {
		burst = 0
	}

	return Rule{Limit: limit, Burst: burst, Window: window}
}

// Allow checks and consumes one token for the identity on the endpoint.
// A disabled limiter or a non-positive limit always allows.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (Result, error) {
	result := Result{
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}

	if !l.cfg.Enabled || rule.Limit <= 0 {
		result.Allowed = true
		if rule.Limit > 0 {
			result.Remaining = rule.Limit
		}
		return result, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
	}

	key := fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, endpoint, identity)
	nowSeconds := float64(l.now().UnixNano()) / float64(time.Second)

	raw, err := l.script.Run(ctx, l.client, []string{key},
		strconv.Itoa(rule.Limit),
		strconv.Itoa(rule.Burst),
		formatFloat(window.Seconds()),
		formatFloat(nowSeconds),
	).Result()
	if err != nil {
		return result, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) < 4 {
		return result, fmt.Errorf("unexpected rate limit script reply: %v", raw)
	}

	result.Allowed = toInt(values[0]) == 1
	result.Remaining = toInt(values[1])
	result.RetryAfter = time.Duration(toFloat(values[2]) * float64(time.Second))
	result.ResetAfter = time.Duration(toFloat(values[3]) * float64(time.Second))

	return result, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch value := v.(type) {
	case int64:
		return int(value)
	case int:
		return value
	case float64:
		return int(value)
	case string:
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return int(parsed)
		}
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case string:
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return 0
}
