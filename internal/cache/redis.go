package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/worklink/internal/model"
	redis "github.com/redis/go-redis/v9"
)

// generations outlive statuses so an in-flight computation still sees a bump
const generationTTL = 24 * time.Hour

func blockedStatusKey(id string) string {
	return "work-item:blocked:" + id
}

func blockedGenerationKey(id string) string {
	return "work-item:blocked-gen:" + id
}

var _ BlockedStatusCache = (*RedisBlockedStatusCache)(nil)

type RedisBlockedStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBlockedStatusCache caches statuses for ttl. Work item status changes
// happen outside this service, so the ttl bounds how long a blocker finished
// elsewhere keeps showing as active.
func NewRedisBlockedStatusCache(client *redis.Client, ttl time.Duration) *RedisBlockedStatusCache {
	return &RedisBlockedStatusCache{client: client, ttl: ttl}
}

func (r *RedisBlockedStatusCache) GetBlockedStatus(ctx context.Context, workItemID string) (*model.BlockedStatus, error) {
	res := r.client.Get(ctx, blockedStatusKey(workItemID))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	status := &model.BlockedStatus{}
	if err := json.Unmarshal(buf, status); err != nil {
		return nil, err
	}

	return status, nil
}

func (r *RedisBlockedStatusCache) BlockedStatusGeneration(ctx context.Context, workItemID string) (int64, error) {
	gen, err := r.client.Get(ctx, blockedGenerationKey(workItemID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *RedisBlockedStatusCache) SetBlockedStatus(ctx context.Context, status *model.BlockedStatus, generation int64) error {
	marshal, err := json.Marshal(status)
	if err != nil {
		return err
	}

	genKey := blockedGenerationKey(status.WorkItemID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			return p.Set(ctx, blockedStatusKey(status.WorkItemID), marshal, r.ttl).Err()
		})
		return err
	}, genKey)
	// invalidated while the write was queued
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *RedisBlockedStatusCache) InvalidateBlockedStatus(ctx context.Context, workItemIDs ...string) error {
	if len(workItemIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(workItemIDs))
	for _, id := range workItemIDs {
		keys = append(keys, blockedStatusKey(id))
	}

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range workItemIDs {
			p.Incr(ctx, blockedGenerationKey(id))
			p.Expire(ctx, blockedGenerationKey(id), generationTTL)
		}
		return p.Del(ctx, keys...).Err()
	})
	return err
}
