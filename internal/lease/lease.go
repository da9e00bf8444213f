package lease

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// Lease hands out short-lived per-operation locks keyed by appointment id and
// operation kind, narrowing the window where two overlapping runs work the
// same appointment. The conditional store writes remain the real guard: when
// Redis is absent or down the lease fails open.
type Lease struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// New builds a lease layer. A nil client disables it (every Acquire wins).
func New(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Lease {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lease{client: client, ttl: ttl, logger: logger}
}

// Acquire attempts to take the lease. Returns false only when another holder
// verifiably has it.
func (l *Lease) Acquire(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	ok, err := l.client.SetNX(ctx, "lease:"+key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		l.logger.Warn("lease acquire failed, failing open", "key", key, "error", err)
		return true
	}
	return ok
}

// Release frees the lease early, typically after a failed send so the next
// run is not blocked for the full TTL.
func (l *Lease) Release(ctx context.Context, key string) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, "lease:"+key).Err(); err != nil {
		l.logger.Warn("lease release failed", "key", key, "error", err)
	}
}
