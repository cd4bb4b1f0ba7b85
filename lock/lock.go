package lock

import (
	"context"
	"time"

	"ticket-gate/status"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the caller still holds it, so
// an expired lease that was re-acquired by someone else is never released.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const acquireRetryInterval = 30 * time.Millisecond

// Locker is a named mutual-exclusion lock backed by Redis. Acquisition
// blocks up to waitTime; a held lock auto-expires after leaseTime so a
// crashed holder cannot wedge the key forever.
type Locker struct {
	redis     *redis.Client
	waitTime  time.Duration
	leaseTime time.Duration
}

func NewLocker(redisClient *redis.Client, waitTime, leaseTime time.Duration) *Locker {
	return &Locker{
		redis:     redisClient,
		waitTime:  waitTime,
		leaseTime: leaseTime,
	}
}

// WithLock runs action while holding the named lock. If the lock cannot be
// acquired within waitTime, or the context is cancelled while waiting, it
// returns *status.LockAcquisitionError and the action never runs. The lock
// is released on every exit path of the action, and only if this call still
// holds it.
func (l *Locker) WithLock(ctx context.Context, key string, action func() error) error {
	holder := uuid.NewString()

	acquired, err := l.acquire(ctx, key, holder)
	if err != nil {
		return err
	}
	if !acquired {
		return &status.LockAcquisitionError{Key: key}
	}

	defer l.release(key, holder)

	return action()
}

func (l *Locker) acquire(ctx context.Context, key, holder string) (bool, error) {
	deadline := time.Now().Add(l.waitTime)

	for {
		ok, err := l.redis.SetNX(ctx, key, holder, l.leaseTime).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			// Cancellation while waiting is a plain acquisition failure:
			// the lock was never marked held for this caller.
			return false, nil
		case <-time.After(acquireRetryInterval):
		}
	}
}

func (l *Locker) release(key, holder string) {
	// Release must not be skipped when the caller's context is already
	// cancelled, so it runs against a fresh short-lived context.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	l.redis.Eval(ctx, releaseScript, []string{key}, holder)
}
