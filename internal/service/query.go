package service

import (
	"context"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/store"
)

// LinkView is a link seen from one of its endpoints, with a summary of the other endpoint.
// WorkItem is nil when the other endpoint no longer exists.
type LinkView struct {
	Link      *model.WorkItemLink    `json:"link"`
	Direction Direction              `json:"direction"`
	WorkItem  *model.WorkItemSummary `json:"workItem"`
}

// ItemLinks groups the links of a work item for display.
type ItemLinks struct {
	WorkItemID     string                        `json:"workItemId"`
	Outgoing       []LinkView                    `json:"outgoing"`
	Incoming       []LinkView                    `json:"incoming"`
	ByType         map[model.LinkType][]LinkView `json:"byType"`
	BlockingCount  int                           `json:"blockingCount"`
	BlockedByCount int                           `json:"blockedByCount"`
}

// WorkItem retrieves a work item, used to find the workspace a request touches.
func (s *LinkService) WorkItem(ctx context.Context, id string) (*model.WorkItem, error) {
	item, err := s.store.GetWorkItem(ctx, id)
	return item, translate(err)
}

// ProjectWorkspace returns the workspace of a project, derived from its work items.
func (s *LinkService) ProjectWorkspace(ctx context.Context, projectID string) (string, error) {
	ids, err := s.store.ListProjectWorkItemIDs(ctx, projectID)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: project %s has no work items", ErrNotFound, projectID)
	}

	item, err := s.store.GetWorkItem(ctx, ids[0])
	if err != nil {
		return "", translate(err)
	}

	return item.WorkspaceID, nil
}

// GetLinksForItem returns the links of a work item in the requested direction,
// optionally restricted to some link types.
func (s *LinkService) GetLinksForItem(ctx context.Context, workItemID string, direction Direction, linkTypes []model.LinkType) (*ItemLinks, error) {
	for _, lt := range linkTypes {
		if !lt.Valid() {
			return nil, invalidArgument("unknown link type %q", lt)
		}
	}
	if direction == "" {
		direction = DirectionBoth
	}

	var outgoing, incoming []*model.WorkItemLink
	var err error
	if direction == DirectionOutgoing || direction == DirectionBoth {
		outgoing, err = s.store.FindLinks(ctx, store.LinkFilter{SourceID: workItemID, LinkTypes: linkTypes})
		if err != nil {
			return nil, err
		}
	}
	if direction == DirectionIncoming || direction == DirectionBoth {
		incoming, err = s.store.FindLinks(ctx, store.LinkFilter{TargetID: workItemID, LinkTypes: linkTypes})
		if err != nil {
			return nil, err
		}
	}

	others := mapset.NewThreadUnsafeSet[string]()
	for _, l := range outgoing {
		others.Add(l.TargetWorkItemID)
	}
	for _, l := range incoming {
		others.Add(l.SourceWorkItemID)
	}

	summaries := make(map[string]*model.WorkItemSummary)
	if others.Cardinality() > 0 {
		items, err := s.store.ListWorkItemsByIDs(ctx, others.ToSlice())
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			summary := item.Summary()
			summaries[item.ID] = &summary
		}
	}

	res := &ItemLinks{
		WorkItemID: workItemID,
		Outgoing:   make([]LinkView, 0, len(outgoing)),
		Incoming:   make([]LinkView, 0, len(incoming)),
		ByType:     make(map[model.LinkType][]LinkView),
	}

	for _, l := range outgoing {
		view := LinkView{Link: l, Direction: DirectionOutgoing, WorkItem: summaries[l.TargetWorkItemID]}
		res.Outgoing = append(res.Outgoing, view)
		res.ByType[l.LinkType] = append(res.ByType[l.LinkType], view)
		if l.LinkType == model.LinkTypeBlocks {
			res.BlockingCount++
		}
	}
	for _, l := range incoming {
		view := LinkView{Link: l, Direction: DirectionIncoming, WorkItem: summaries[l.SourceWorkItemID]}
		res.Incoming = append(res.Incoming, view)
		res.ByType[l.LinkType] = append(res.ByType[l.LinkType], view)
		if l.LinkType == model.LinkTypeBlocks {
			res.BlockedByCount++
		}
	}

	return res, nil
}

// GetLinksForProject returns every link whose endpoints both belong to the project,
// each once, oldest first.
func (s *LinkService) GetLinksForProject(ctx context.Context, projectID string) ([]*model.WorkItemLink, error) {
	ids, err := s.store.ListProjectWorkItemIDs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.WorkItemLink{}, nil
	}

	fromProject, err := s.store.FindLinks(ctx, store.LinkFilter{SourceIDs: ids})
	if err != nil {
		return nil, err
	}
	intoProject, err := s.store.FindLinks(ctx, store.LinkFilter{TargetIDs: ids})
	if err != nil {
		return nil, err
	}

	members := mapset.NewThreadUnsafeSet(ids...)
	seen := mapset.NewThreadUnsafeSet[string]()
	links := make([]*model.WorkItemLink, 0, len(fromProject))
	for _, l := range append(fromProject, intoProject...) {
		if !members.Contains(l.SourceWorkItemID) || !members.Contains(l.TargetWorkItemID) {
			continue
		}
		if seen.Add(l.ID) {
			links = append(links, l)
		}
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].ID < links[j].ID
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})

	return links, nil
}

// LinkTypes returns the static link type metadata.
func (s *LinkService) LinkTypes() map[model.LinkType]model.LinkTypeInfo {
	return model.LinkTypeMetadata()
}
