package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// dayFormat keys daily trigger counts; days are reckoned in UTC
const dayFormat = "2006-01-02"

// RedisCounter tracks daily trigger counts in Redis so the cap survives
// restarts and is shared across engine replicas. Keys expire shortly
// after the day they count rolls over.
type RedisCounter struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewRedisCounter creates a Redis-backed daily trigger counter
func NewRedisCounter(rdb *redis.Client, logger zerolog.Logger) *RedisCounter {
	return &RedisCounter{
		rdb:    rdb,
		logger: logger.With().Str("component", "trigger-counter").Logger(),
	}
}

func counterKey(alertID string, day time.Time) string {
	return fmt.Sprintf("trigger_count:%s:%s", alertID, day.UTC().Format(dayFormat))
}

// CountForDay returns how many times the alert fired on the given day
func (c *RedisCounter) CountForDay(ctx context.Context, alertID string, day time.Time) (int, error) {
	count, err := c.rdb.Get(ctx, counterKey(alertID, day)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get trigger count: %w", err)
	}
	return count, nil
}

// Record increments the alert's count for the day of the trigger. The
// key expires an hour past midnight UTC so late reads still see it.
func (c *RedisCounter) Record(ctx context.Context, alertID string, at time.Time) error {
	key := counterKey(alertID, at)

	if err := c.rdb.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("incr trigger count: %w", err)
	}

	midnight := at.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if err := c.rdb.ExpireAt(ctx, key, midnight.Add(time.Hour)).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to set counter expiry")
	}
	return nil
}

// MemoryCounter is the in-process fallback used when Redis is disabled.
// Counts reset on restart, so the daily cap is best-effort in this mode.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryCounter creates an in-memory daily trigger counter
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int)}
}

// CountForDay returns the in-process count for the alert and day
func (c *MemoryCounter) CountForDay(_ context.Context, alertID string, day time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[counterKey(alertID, day)], nil
}

// Record increments the in-process count for the trigger's day
func (c *MemoryCounter) Record(_ context.Context, alertID string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[counterKey(alertID, at)]++
	return nil
}
