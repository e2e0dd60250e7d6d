package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another owner holds the requested lock.
var ErrLockHeld = errors.New("redis: lock held by another owner")

// releaseScript deletes the lock only while it still carries the caller's
// owner token, so a request whose lock already expired cannot free the lock
// of the request that took over.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireLock claims key for ttl and returns the owner token ReleaseLock needs.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	owner := uuid.NewString()
	ok, err := c.SetNX(ctx, key, owner, ttl)
	if err != nil {
		return "", fmt.Errorf("redis: acquire %s: %w", key, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return owner, nil
}

// ReleaseLock frees key if owner still holds it. Releasing an expired or
// foreign lock is a no-op.
func (c *Client) ReleaseLock(ctx context.Context, key, owner string) error {
	if owner == "" {
		return nil
	}
	cmd, err := c.commands()
	if err != nil {
		return err
	}
	if err := releaseScript.Run(ctx, cmd, []string{key}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: release %s: %w", key, err)
	}
	return nil
}
