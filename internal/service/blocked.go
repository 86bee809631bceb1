package service

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/store"
	"github.com/sirupsen/logrus"
)

// GetBlockedStatus reports whether a work item has an unfinished blocker.
// Only blockers that are not done are listed.
func (s *LinkService) GetBlockedStatus(ctx context.Context, workItemID string) (*model.BlockedStatus, error) {
	cached, err := s.cache.GetBlockedStatus(ctx, workItemID)
	if err != nil {
		logrus.Warnf("failed to read blocked status cache: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	gen, genErr := s.cache.BlockedStatusGeneration(ctx, workItemID)
	if genErr != nil {
		logrus.Warnf("failed to read blocked status generation: %v", genErr)
	}

	blockers, err := s.blockerIDs(ctx, workItemID)
	if err != nil {
		return nil, err
	}

	status := &model.BlockedStatus{
		WorkItemID: workItemID,
		BlockedBy:  make([]model.WorkItemSummary, 0),
	}

	if len(blockers) > 0 {
		items, err := s.store.ListWorkItemsByIDs(ctx, blockers)
		if err != nil {
			return nil, err
		}

		for _, item := range sortedItems(items, blockers) {
			if item.IsDone() {
				continue
			}
			status.BlockedBy = append(status.BlockedBy, item.Summary())
		}
	}
	status.IsBlocked = len(status.BlockedBy) > 0

	// the cache drops the write if the item was invalidated since gen was read
	if genErr == nil {
		if err := s.cache.SetBlockedStatus(ctx, status, gen); err != nil {
			logrus.Warnf("failed to write blocked status cache: %v", err)
		}
	}

	return status, nil
}

// blockerIDs returns the items blocking workItemID, in link creation order.
func (s *LinkService) blockerIDs(ctx context.Context, workItemID string) ([]string, error) {
	blocks, err := s.store.FindLinks(ctx, store.LinkFilter{TargetID: workItemID, LinkType: model.LinkTypeBlocks})
	if err != nil {
		return nil, err
	}
	blockedBy, err := s.store.FindLinks(ctx, store.LinkFilter{SourceID: workItemID, LinkType: model.LinkTypeIsBlockedBy})
	if err != nil {
		return nil, err
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var ids []string
	for _, l := range blocks {
		if seen.Add(l.SourceWorkItemID) {
			ids = append(ids, l.SourceWorkItemID)
		}
	}
	for _, l := range blockedBy {
		if seen.Add(l.TargetWorkItemID) {
			ids = append(ids, l.TargetWorkItemID)
		}
	}

	return ids, nil
}

// sortedItems orders items like ids, dropping ids without an item.
func sortedItems(items []*model.WorkItem, ids []string) []*model.WorkItem {
	byID := make(map[string]*model.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	out := make([]*model.WorkItem, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}

	return out
}

// WorkItemStatusChanged drops the cached blocked status of every item blocked by
// workItemID. The work item lifecycle calls it after a status transition.
func (s *LinkService) WorkItemStatusChanged(ctx context.Context, workItemID string) error {
	blocks, err := s.store.FindLinks(ctx, store.LinkFilter{SourceID: workItemID, LinkType: model.LinkTypeBlocks})
	if err != nil {
		return err
	}
	blockedBy, err := s.store.FindLinks(ctx, store.LinkFilter{TargetID: workItemID, LinkType: model.LinkTypeIsBlockedBy})
	if err != nil {
		return err
	}

	s.invalidate(ctx, append(blocks, blockedBy...)...)

	return nil
}
