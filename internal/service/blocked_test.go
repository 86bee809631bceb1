package service

import (
	"context"
	"testing"

	"github.com/emrgen/worklink/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkService_GetBlockedStatus(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.f.WorkItem(t, "a")
	b := e.f.WorkItem(t, "b")
	c := e.f.WorkItem(t, "c")
	d := e.f.WorkItem(t, "d")

	status, err := e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)
	assert.Empty(t, status.BlockedBy)

	_, err = e.create(t, a, c, model.LinkTypeBlocks)
	require.NoError(t, err)
	_, err = e.create(t, c, b, model.LinkTypeIsBlockedBy)
	require.NoError(t, err)
	// unrelated types never block
	_, err = e.create(t, d, c, model.LinkTypeCauses)
	require.NoError(t, err)

	status, err = e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, status.IsBlocked)
	require.Len(t, status.BlockedBy, 2)
	assert.Equal(t, a.ID, status.BlockedBy[0].ID)
	assert.Equal(t, b.ID, status.BlockedBy[1].ID)

	// the blocker itself is not blocked
	status, err = e.svc.GetBlockedStatus(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)
}

func TestLinkService_GetBlockedStatus_DoneBlockers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.f.WorkItem(t, "a")
	b := e.f.WorkItem(t, "b")
	c := e.f.WorkItem(t, "c")

	_, err := e.create(t, a, c, model.LinkTypeBlocks)
	require.NoError(t, err)
	_, err = e.create(t, b, c, model.LinkTypeBlocks)
	require.NoError(t, err)

	status, err := e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, status.BlockedBy, 2)

	require.NoError(t, e.store.UpdateWorkItemStatus(ctx, a.ID, model.WorkItemStatusDone))
	require.NoError(t, e.svc.WorkItemStatusChanged(ctx, a.ID))

	status, err = e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, status.IsBlocked)
	require.Len(t, status.BlockedBy, 1)
	assert.Equal(t, b.ID, status.BlockedBy[0].ID)

	require.NoError(t, e.store.UpdateWorkItemStatus(ctx, b.ID, model.WorkItemStatusDone))
	require.NoError(t, e.svc.WorkItemStatusChanged(ctx, b.ID))

	status, err = e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)
	assert.Empty(t, status.BlockedBy)
}

func TestLinkService_GetBlockedStatus_Cache(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.f.WorkItem(t, "a")
	b := e.f.WorkItem(t, "b")

	status, err := e.svc.GetBlockedStatus(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)
	assert.Contains(t, e.cache.statuses, b.ID)

	// creating a blocking link invalidates both endpoints
	link, err := e.create(t, a, b, model.LinkTypeBlocks)
	require.NoError(t, err)
	assert.NotContains(t, e.cache.statuses, b.ID)

	status, err = e.svc.GetBlockedStatus(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, status.IsBlocked)

	require.NoError(t, e.svc.Delete(ctx, link.ID, true))
	status, err = e.svc.GetBlockedStatus(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)

	// non dependency links leave the cache alone
	e.cache.invalidated = nil
	_, err = e.create(t, a, b, model.LinkTypeRelatesTo)
	require.NoError(t, err)
	assert.Empty(t, e.cache.invalidated)
}

func TestLinkService_GetBlockedStatus_InvalidatedWhileComputing(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.f.WorkItem(t, "a")
	c := e.f.WorkItem(t, "c")

	// the link lands after the status was computed but before it is cached
	e.cache.beforeSet = func() {
		_, err := e.create(t, a, c, model.LinkTypeBlocks)
		require.NoError(t, err)
	}

	status, err := e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, status.IsBlocked)

	cached, err := e.cache.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	status, err = e.svc.GetBlockedStatus(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, status.IsBlocked)
	require.Len(t, status.BlockedBy, 1)
	assert.Equal(t, a.ID, status.BlockedBy[0].ID)
}
