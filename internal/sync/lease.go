package sync

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease provides mutual exclusion for sync runs.  The scheduler is not
// assumed to guarantee at-most-one concurrent run per venue provider, so
// the orchestrator takes an explicit lease keyed by venue-provider id
// before walking the feed.
type Lease interface {
	// Acquire takes the lease for at most ttl.  It returns false when the
	// lease is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the lease.  Releasing an expired lease is harmless.
	Release(ctx context.Context, key string) error
}

// RedisLease implements Lease with a SET NX key carrying a TTL, so a
// crashed run frees its lease after at most the TTL.
type RedisLease struct {
	rdb *redis.Client
}

// NewRedisLease wraps a redis client.  It returns nil when the client is
// nil so callers can degrade to running without a lease.
func NewRedisLease(rdb *redis.Client) *RedisLease {
	if rdb == nil {
		return nil
	}
	return &RedisLease{rdb: rdb}
}

// Acquire takes the lease via SET NX with expiry.
func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// Release deletes the lease key.
func (l *RedisLease) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}
