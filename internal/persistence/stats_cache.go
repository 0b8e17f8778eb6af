package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const statsCacheKey = "helpdesk:ticket_stats"

// StatsCache keeps the dashboard ticket stats in Redis for a short TTL.
// All methods are nil-safe and swallow Redis errors: a cache miss just
// means recomputing from the store.
type StatsCache struct {
	redis *Redis
	ttl   time.Duration
}

// NewStatsCache builds a cache over the shared Redis wrapper.
func NewStatsCache(r *Redis, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsCache{redis: r, ttl: ttl}
}

// Get returns cached stats, or false on miss or any Redis failure.
func (c *StatsCache) Get(ctx context.Context) (*domain.TicketStats, bool) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return nil, false
	}
	raw, err := c.redis.Client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats domain.TicketStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Set stores stats, ignoring Redis failures.
func (c *StatsCache) Set(ctx context.Context, stats *domain.TicketStats) {
	if c == nil || c.redis == nil || c.redis.Client == nil || stats == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = c.redis.Client.Set(ctx, statsCacheKey, raw, c.ttl).Err()
}

// Invalidate drops the cached stats after a mutation.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	_ = c.redis.Client.Del(ctx, statsCacheKey).Err()
}
