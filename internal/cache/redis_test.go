package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/emrgen/worklink/internal/model"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	ctx := context.Background()
	c := NewNop()

	require.NoError(t, c.SetBlockedStatus(ctx, &model.BlockedStatus{WorkItemID: "a", IsBlocked: true}, 0))
	got, err := c.GetBlockedStatus(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateBlockedStatus(ctx, "a"))
}

func TestRedisBlockedStatusCache(t *testing.T) {
	addr := os.Getenv("WORKLINK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set WORKLINK_TEST_REDIS_ADDR to run redis tests")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisBlockedStatusCache(client, time.Minute)
	id := uuid.New().String()
	blocker := uuid.New().String()

	got, err := c.GetBlockedStatus(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	status := &model.BlockedStatus{
		WorkItemID: id,
		IsBlocked:  true,
		BlockedBy: []model.WorkItemSummary{
			{ID: blocker, Key: "WL-1", Title: "blocker", Status: model.WorkItemStatusInProgress},
		},
	}
	gen, err := c.BlockedStatusGeneration(ctx, id)
	require.NoError(t, err)
	require.NoError(t, c.SetBlockedStatus(ctx, status, gen))

	got, err = c.GetBlockedStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status, got)

	ttl, err := client.TTL(ctx, blockedStatusKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.InvalidateBlockedStatus(ctx, id, blocker))
	got, err = c.GetBlockedStatus(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	// a status computed before the invalidation is not cached
	require.NoError(t, c.SetBlockedStatus(ctx, status, gen))
	got, err = c.GetBlockedStatus(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	next, err := c.BlockedStatusGeneration(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	require.NoError(t, c.SetBlockedStatus(ctx, status, next))
	got, err = c.GetBlockedStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status, got)
}
