package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// MemoryLimiter adapts ulule's in-process store to the Limiter interface.
// The bridge holds no cross-request state elsewhere, so an in-memory window
// per instance is the right scope.
type MemoryLimiter struct {
	store limiter.Store
}

// NewMemoryLimiter constructs an in-memory sliding window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{store: limitermem.NewStore()}
}

// Allow registers an event for the given key and reports whether it is within the limit.
func (m *MemoryLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if m == nil || m.store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	lctx, err := m.store.Get(ctx, key, rate)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
