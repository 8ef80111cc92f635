package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SeenEventCache implements ports.SeenEventCache. It only short-circuits
// redeliveries; the notifications primary key stays authoritative.
type SeenEventCache struct {
	client goredis.Cmdable
	prefix string
}

func NewSeenEventCache(client goredis.Cmdable) *SeenEventCache {
	return &SeenEventCache{
		client: client,
		prefix: "webhook:seen:",
	}
}

// Seen reports whether eventID was stored recently.
func (c *SeenEventCache) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis seen-event exists: %w", err)
	}
	return n > 0, nil
}

// Remember marks eventID as stored for ttl.
func (c *SeenEventCache) Remember(ctx context.Context, eventID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+eventID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis seen-event set: %w", err)
	}
	return nil
}
