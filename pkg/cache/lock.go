package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GenerationLock serialises schedule generation per department and month.
// Two generators running against the same department-month would race on
// shift creation and rotation state, so the lock must be acquired first.
type GenerationLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGenerationLock builds a lock manager with the given lease TTL.
func NewGenerationLock(client *redis.Client, ttl time.Duration) *GenerationLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &GenerationLock{client: client, ttl: ttl}
}

// Acquire attempts to take the department-month lease. The returned token is
// required to release; ok is false when another holder owns the lease.
func (l *GenerationLock) Acquire(ctx context.Context, departmentID string, year int, month time.Month) (token string, ok bool, err error) {
	token = uuid.NewString()
	key := lockKey(departmentID, year, month)
	ok, err = l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire generation lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release frees the lease if the token still owns it.
func (l *GenerationLock) Release(ctx context.Context, departmentID string, year int, month time.Month, token string) error {
	key := lockKey(departmentID, year, month)
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("release generation lock %s: %w", key, err)
	}
	return nil
}

func lockKey(departmentID string, year int, month time.Month) string {
	return fmt.Sprintf("roster:genlock:%s:%04d-%02d", departmentID, year, int(month))
}
