package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Dedup records handled event ids per consumer group so redelivered
// messages can be skipped.
type Dedup struct{ RDB *redis.Client }

// MarkHandled reports whether this delivery is the first one for the
// event id. Duplicate deliveries return false.
func (d *Dedup) MarkHandled(ctx context.Context, service, eventID string) (bool, error) {
	key := Key(KeyDedup, service, eventID)
	return d.RDB.SetNX(ctx, key, "1", TTLDedup).Result()
}
