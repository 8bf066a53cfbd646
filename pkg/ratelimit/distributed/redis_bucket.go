package distributed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/timing"
)

// LocalLimiter is consulted while Redis is unreachable.
type LocalLimiter interface {
	Allow() bool
	Wait(ctx context.Context) error
}

// Config holds configuration for a RedisBucket.
type Config struct {
	// Client is the Redis connection shared by every instance.
	Client redis.UniversalClient

	// Key prefixes every Redis key the bucket uses.
	Key string

	// Rate is the number of tokens added per second across all instances.
	Rate float64

	// Burst is the bucket capacity.
	Burst int

	// InstanceID identifies this process in the instances set. Empty means a
	// random UUID.
	InstanceID string

	// Fallback, if set, serves requests when a Redis call fails.
	Fallback LocalLimiter

	// RedisTimeout bounds each Redis round trip. Zero means 500ms.
	RedisTimeout time.Duration

	// KeyTTL is the expiry refreshed on every write. Zero means one hour.
	KeyTTL time.Duration

	// TimeProvider supplies the clock and wait timers. Nil means timing.System.
	TimeProvider timing.TimeProvider

	// Logger receives fallback warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// Stats is a snapshot of the shared bucket.
type Stats struct {
	Rate      float64
	Burst     int
	Tokens    float64
	Allowed   int64
	Denied    int64
	Instances []string
}

// RedisBucket is a token bucket whose state lives in Redis, so every process
// sharing Key draws from the same budget. Refill and consumption run in one
// Lua script and are atomic.
type RedisBucket struct {
	config Config
	tp     timing.TimeProvider
	logger *slog.Logger

	stateKey     string
	statsKey     string
	instancesKey string
}

var takeScript = redis.NewScript(luaTake)

// New validates config and returns a RedisBucket. No Redis call is made
// until the bucket is used.
func New(config Config) (*RedisBucket, error) {
	if err := validation.ValidateNotNil("distributed", "client", config.Client); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("distributed", "key", config.Key); err != nil {
		return nil, err
	}
	if config.Rate <= 0 {
		return nil, rxerrors.NewValidationError("distributed", "rate", config.Rate, "must be positive")
	}
	if config.Burst <= 0 {
		return nil, rxerrors.NewValidationError("distributed", "burst", config.Burst, "must be positive")
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.RedisTimeout <= 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if config.KeyTTL <= 0 {
		config.KeyTTL = time.Hour
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisBucket{
		config:       config,
		tp:           timing.OrSystem(config.TimeProvider),
		logger:       logger.With(slog.String("limiter", config.Key)),
		stateKey:     config.Key + ":state",
		statsKey:     config.Key + ":stats",
		instancesKey: config.Key + ":instances",
	}, nil
}

// InstanceID returns the identifier this process registers under.
func (b *RedisBucket) InstanceID() string {
	return b.config.InstanceID
}

// Allow takes one token if one is available now.
func (b *RedisBucket) Allow(ctx context.Context) bool {
	ok, _, err := b.take(ctx, 1)
	if err != nil {
		if f := b.fallback(ctx, "Allow", err); f != nil {
			return f.Allow()
		}
		return false
	}
	return ok
}

// Wait blocks until a token is taken or ctx ends. A denied attempt sleeps for
// the refill time the script reports and then tries again, since other
// instances may drain the bucket meanwhile.
func (b *RedisBucket) Wait(ctx context.Context) error {
	for {
		ok, delay, err := b.take(ctx, 1)
		if err != nil {
			if f := b.fallback(ctx, "Wait", err); f != nil {
				return f.Wait(ctx)
			}
			return err
		}
		if ok {
			return nil
		}
		if err := timing.Delay(ctx, b.tp, max(delay, time.Millisecond)); err != nil {
			return err
		}
	}
}

// Stats reads the shared state without refilling it.
func (b *RedisBucket) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.RedisTimeout)
	defer cancel()

	pipe := b.config.Client.Pipeline()
	tokensCmd := pipe.HGet(ctx, b.stateKey, "tokens")
	statsCmd := pipe.HGetAll(ctx, b.statsKey)
	instancesCmd := pipe.SMembers(ctx, b.instancesKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, rxerrors.NewOperationError("distributed", "Stats", err)
	}

	tokens := float64(b.config.Burst)
	if v, err := strconv.ParseFloat(tokensCmd.Val(), 64); err == nil {
		tokens = v
	}
	counts := statsCmd.Val()
	allowed, _ := strconv.ParseInt(counts["allowed"], 10, 64)
	denied, _ := strconv.ParseInt(counts["denied"], 10, 64)

	return &Stats{
		Rate:      b.config.Rate,
		Burst:     b.config.Burst,
		Tokens:    tokens,
		Allowed:   allowed,
		Denied:    denied,
		Instances: instancesCmd.Val(),
	}, nil
}

// Reset deletes the shared state, refilling the bucket for every instance.
func (b *RedisBucket) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.RedisTimeout)
	defer cancel()
	if err := b.config.Client.Del(ctx, b.stateKey, b.statsKey, b.instancesKey).Err(); err != nil {
		return rxerrors.NewOperationError("distributed", "Reset", err)
	}
	return nil
}

// Close removes this instance from the instances set. It does not close the
// Redis client.
func (b *RedisBucket) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.RedisTimeout)
	defer cancel()
	if err := b.config.Client.SRem(ctx, b.instancesKey, b.config.InstanceID).Err(); err != nil {
		return rxerrors.NewOperationError("distributed", "Close", err)
	}
	return nil
}

// take runs the refill-and-consume script for n tokens. When denied it
// returns the time until enough tokens accrue.
func (b *RedisBucket) take(ctx context.Context, n int) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.config.RedisTimeout)
	defer cancel()

	now := float64(b.tp.Now().UnixNano()) / 1e9
	res, err := takeScript.Run(ctx, b.config.Client,
		[]string{b.stateKey, b.statsKey, b.instancesKey},
		n, now, b.config.Rate, b.config.Burst, int64(b.config.KeyTTL/time.Second), b.config.InstanceID,
	).Slice()
	if err != nil {
		return false, 0, rxerrors.NewOperationError("distributed", "take", err)
	}
	if len(res) != 2 {
		return false, 0, rxerrors.NewOperationError("distributed", "take",
			fmt.Errorf("unexpected script reply %v", res))
	}

	allowed, _ := res[0].(int64)
	delayText, _ := res[1].(string)
	delay, err := strconv.ParseFloat(delayText, 64)
	if err != nil {
		return false, 0, rxerrors.NewOperationError("distributed", "take", err)
	}
	return allowed == 1, time.Duration(delay * float64(time.Second)), nil
}

// fallback returns the local limiter to use after err, or nil when there is
// none or the caller's ctx has ended.
func (b *RedisBucket) fallback(ctx context.Context, op string, err error) LocalLimiter {
	if b.config.Fallback == nil || ctx.Err() != nil {
		return nil
	}
	b.logger.Warn("redis unavailable, using local limiter",
		slog.String("operation", op), slog.Any("error", err))
	return b.config.Fallback
}

// KEYS: state hash, stats hash, instances set.
// ARGV: requested, now (seconds), rate, capacity, ttl (seconds), instance id.
// Reply: {allowed, delay seconds}.
const luaTake = `
local requested = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local capacity = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last')
local tokens = tonumber(state[1]) or capacity
local last = tonumber(state[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - last) * rate)

local allowed = 0
local delay = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
  redis.call('HINCRBY', KEYS[2], 'allowed', 1)
else
  delay = (requested - tokens) / rate
  redis.call('HINCRBY', KEYS[2], 'denied', 1)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last', tostring(math.max(now, last)))
redis.call('SADD', KEYS[3], ARGV[6])
if ttl > 0 then
  redis.call('EXPIRE', KEYS[1], ttl)
  redis.call('EXPIRE', KEYS[2], ttl)
  redis.call('EXPIRE', KEYS[3], ttl)
end

return {allowed, tostring(delay)}
`
