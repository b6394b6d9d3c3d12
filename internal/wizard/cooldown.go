// internal/wizard/cooldown.go
package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown throttles repeat submissions for the same key.
type Cooldown interface {
	// Acquire starts a window for key. When one is already running it returns
	// false and the time left.
	Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

type MemoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{until: map[string]time.Time{}, now: time.Now}
}

func (c *MemoryCooldown) Acquire(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if until, ok := c.until[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	for k, until := range c.until {
		if !now.Before(until) {
			delete(c.until, k)
		}
	}
	c.until[key] = now.Add(window)
	return true, 0, nil
}

// RedisCooldown shares the window across portal instances with SET NX PX.
type RedisCooldown struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisCooldown(rdb redis.Cmdable) *RedisCooldown {
	return &RedisCooldown{rdb: rdb, prefix: "wizard:cooldown:"}
}

func (c *RedisCooldown) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	k := c.prefix + key
	ok, err := c.rdb.SetNX(ctx, k, time.Now().UTC().Format(time.RFC3339Nano), window).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	remaining, err := c.rdb.PTTL(ctx, k).Result()
	if err != nil || remaining < 0 {
		return false, window, nil
	}
	return false, remaining, nil
}
