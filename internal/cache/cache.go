package cache

import (
	"context"

	"github.com/emrgen/worklink/internal/model"
)

// BlockedStatusCache keeps derived blocked statuses between requests.
type BlockedStatusCache interface {
	// GetBlockedStatus returns the cached status, or nil when absent.
	GetBlockedStatus(ctx context.Context, workItemID string) (*model.BlockedStatus, error)
	// BlockedStatusGeneration returns a counter bumped by every invalidation of
	// the work item. Read it before computing a status to cache.
	BlockedStatusGeneration(ctx context.Context, workItemID string) (int64, error)
	// SetBlockedStatus caches the status of a work item unless it was
	// invalidated after generation was read.
	SetBlockedStatus(ctx context.Context, status *model.BlockedStatus, generation int64) error
	// InvalidateBlockedStatus drops the cached status of the given work items.
	InvalidateBlockedStatus(ctx context.Context, workItemIDs ...string) error
}

var _ BlockedStatusCache = Nop{}

// Nop caches nothing.
type Nop struct{}

func NewNop() Nop {
	return Nop{}
}

func (Nop) GetBlockedStatus(ctx context.Context, workItemID string) (*model.BlockedStatus, error) {
	return nil, nil
}

func (Nop) BlockedStatusGeneration(ctx context.Context, workItemID string) (int64, error) {
	return 0, nil
}

func (Nop) SetBlockedStatus(ctx context.Context, status *model.BlockedStatus, generation int64) error {
	return nil
}

func (Nop) InvalidateBlockedStatus(ctx context.Context, workItemIDs ...string) error {
	return nil
}
