package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessingSet holds the users currently permitted to act on a resource, a
// Redis set bounded by maxProcessingCount. The bound is enforced
// cooperatively by the locked promotion path, not by Redis itself; unlocked
// readers may observe a transient overshoot.
type ProcessingSet struct {
	redis              *redis.Client
	entryTimeout       time.Duration
	maxProcessingCount int
}

func NewProcessingSet(redisClient *redis.Client, entryTimeout time.Duration, maxProcessingCount int) *ProcessingSet {
	return &ProcessingSet{
		redis:              redisClient,
		entryTimeout:       entryTimeout,
		maxProcessingCount: maxProcessingCount,
	}
}

func (p *ProcessingSet) Contains(ctx context.Context, resourceID, userID string) (bool, error) {
	return p.redis.SIsMember(ctx, ProcessingKey(resourceID), userID).Result()
}

func (p *ProcessingSet) Add(ctx context.Context, resourceID, userID string) error {
	key := ProcessingKey(resourceID)
	if err := p.redis.SAdd(ctx, key, userID).Err(); err != nil {
		return err
	}
	return p.refresh(ctx, key)
}

func (p *ProcessingSet) AddAll(ctx context.Context, resourceID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	key := ProcessingKey(resourceID)
	members := make([]interface{}, len(userIDs))
	for i, userID := range userIDs {
		members[i] = userID
	}

	if err := p.redis.SAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	return p.refresh(ctx, key)
}

func (p *ProcessingSet) Remove(ctx context.Context, resourceID, userID string) error {
	return p.redis.SRem(ctx, ProcessingKey(resourceID), userID).Err()
}

func (p *ProcessingSet) Size(ctx context.Context, resourceID string) (int64, error) {
	return p.redis.SCard(ctx, ProcessingKey(resourceID)).Result()
}

func (p *ProcessingSet) HasCapacity(ctx context.Context, resourceID string) (bool, error) {
	size, err := p.Size(ctx, resourceID)
	if err != nil {
		return false, err
	}
	return size < int64(p.maxProcessingCount), nil
}

func (p *ProcessingSet) RemainingCapacity(ctx context.Context, resourceID string) (int64, error) {
	size, err := p.Size(ctx, resourceID)
	if err != nil {
		return 0, err
	}
	return int64(p.maxProcessingCount) - size, nil
}

// refresh resets the abandonment TTL for the whole set. An abandoned single
// member among active ones is not independently evicted.
func (p *ProcessingSet) refresh(ctx context.Context, key string) error {
	return p.redis.Expire(ctx, key, p.entryTimeout).Err()
}
