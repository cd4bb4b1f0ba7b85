package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// WaitingQueue is the FIFO line per resource, a Redis sorted set ranked by
// arrival timestamp. The millisecond score is purely a sort key: ties within
// one millisecond fall back to Redis' lexicographic ordering of member ids,
// so first-come-first-served holds with high probability, not exactly.
type WaitingQueue struct {
	redis          *redis.Client
	waitingTimeout time.Duration
}

func NewWaitingQueue(redisClient *redis.Client, waitingTimeout time.Duration) *WaitingQueue {
	return &WaitingQueue{
		redis:          redisClient,
		waitingTimeout: waitingTimeout,
	}
}

func (q *WaitingQueue) Contains(ctx context.Context, resourceID, userID string) (bool, error) {
	_, err := q.redis.ZScore(ctx, WaitingKey(resourceID), userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Add registers the user with its arrival timestamp as score. Callers must
// have already checked non-membership; re-adding overwrites the score.
func (q *WaitingQueue) Add(ctx context.Context, resourceID, userID string) error {
	key := WaitingKey(resourceID)
	score := float64(time.Now().UnixMilli())

	if err := q.redis.ZAdd(ctx, key, redis.Z{Score: score, Member: userID}).Err(); err != nil {
		return err
	}
	return q.refresh(ctx, key)
}

func (q *WaitingQueue) Remove(ctx context.Context, resourceID, userID string) error {
	key := WaitingKey(resourceID)
	if err := q.redis.ZRem(ctx, key, userID).Err(); err != nil {
		return err
	}
	return q.refresh(ctx, key)
}

// Rank returns the 0-based position by ascending arrival score, or nil when
// the user is not waiting.
func (q *WaitingQueue) Rank(ctx context.Context, resourceID, userID string) (*int64, error) {
	rank, err := q.redis.ZRank(ctx, WaitingKey(resourceID), userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rank, nil
}

// All returns every waiting user in arrival order.
func (q *WaitingQueue) All(ctx context.Context, resourceID string) ([]string, error) {
	return q.redis.ZRange(ctx, WaitingKey(resourceID), 0, -1).Result()
}

// PollTop removes and returns up to n lowest-ranked users. The read and the
// deletes are not atomic relative to concurrent PollTop calls on the same
// resource; callers must serialize through the promotion lock.
func (q *WaitingQueue) PollTop(ctx context.Context, resourceID string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	key := WaitingKey(resourceID)
	users, err := q.redis.ZRange(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	for _, userID := range users {
		if err := q.redis.ZRem(ctx, key, userID).Err(); err != nil {
			return nil, err
		}
	}

	if err := q.refresh(ctx, key); err != nil {
		return nil, err
	}
	return users, nil
}

// refresh bounds how long an abandoned queue lingers: the whole structure
// shares one idle clock, reset on every mutation.
func (q *WaitingQueue) refresh(ctx context.Context, key string) error {
	return q.redis.Expire(ctx, key, q.waitingTimeout).Err()
}
