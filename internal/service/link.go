package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/worklink/internal/cache"
	"github.com/emrgen/worklink/internal/graph"
	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/store"
	"github.com/sirupsen/logrus"
)

// Options tune the link service.
type Options struct {
	// CycleCheckMaxDepth limits the blocking cycle search, 0 means unlimited.
	CycleCheckMaxDepth int
	// BulkOnDuplicate is the duplicate policy of bulk creates that do not name one.
	BulkOnDuplicate DuplicatePolicy
}

// NewLinkService creates a new LinkService.
func NewLinkService(store store.Store, cache cache.BlockedStatusCache, opts Options) *LinkService {
	opts.BulkOnDuplicate = policyOr(opts.BulkOnDuplicate, DuplicateSkip)

	return &LinkService{
		store: store,
		cache: cache,
		opts:  opts,
	}
}

// LinkService is the only writer of work item links. It enforces the link
// invariants: no self links, one edge per (source, target, type), both
// endpoints in the link workspace, inverse edges kept in step and an acyclic
// blocking subgraph.
type LinkService struct {
	store store.Store
	cache cache.BlockedStatusCache
	opts  Options
}

// Create creates a link and, unless disabled or the type is symmetric, its inverse.
// Both edges are written in one transaction.
func (s *LinkService) Create(ctx context.Context, req *CreateLinkRequest) (*model.WorkItemLink, error) {
	if req.SourceWorkItemID != "" && req.SourceWorkItemID == req.TargetWorkItemID {
		return nil, invalidArgument("cannot link work item %s to itself", req.SourceWorkItemID)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var link *model.WorkItemLink
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		link, _, err = s.create(ctx, tx, req, policyOr(req.OnDuplicate, DuplicateReject))
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	s.invalidate(ctx, link)
	logrus.Infof("link created: %s %s %s (%s)", link.SourceWorkItemID, link.LinkType, link.TargetWorkItemID, link.ID)

	return link, nil
}

// BulkCreate creates many links in one transaction, applying the single create
// rules to every entry. Existing edges are skipped unless the policy is reject.
func (s *LinkService) BulkCreate(ctx context.Context, req *BulkCreateRequest) (*BulkCreateResponse, error) {
	for i, entry := range req.Links {
		if entry.SourceWorkItemID != "" && entry.SourceWorkItemID == entry.TargetWorkItemID {
			return nil, invalidArgument("links[%d]: cannot link work item %s to itself", i, entry.SourceWorkItemID)
		}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	policy := policyOr(req.OnDuplicate, s.opts.BulkOnDuplicate)
	res := &BulkCreateResponse{Links: make([]*model.WorkItemLink, 0, len(req.Links))}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		for i, entry := range req.Links {
			link, skipped, err := s.create(ctx, tx, &CreateLinkRequest{
				WorkspaceID:      req.WorkspaceID,
				SourceWorkItemID: entry.SourceWorkItemID,
				TargetWorkItemID: entry.TargetWorkItemID,
				LinkType:         entry.LinkType,
				Description:      entry.Description,
				CreateInverse:    req.CreateInverses,
				CreatedBy:        req.CreatedBy,
			}, policy)
			if err != nil {
				return fmt.Errorf("links[%d]: %w", i, err)
			}
			if skipped {
				res.Skipped++
				continue
			}
			res.Links = append(res.Links, link)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.invalidate(ctx, res.Links...)
	logrus.Infof("bulk created %d links, skipped %d", len(res.Links), res.Skipped)

	return res, nil
}

// create runs the create steps against tx. It reports skipped=true with the
// existing edge when the edge exists and the policy is skip.
func (s *LinkService) create(ctx context.Context, tx store.Store, req *CreateLinkRequest, policy DuplicatePolicy) (*model.WorkItemLink, bool, error) {
	if req.SourceWorkItemID == req.TargetWorkItemID {
		return nil, false, invalidArgument("cannot link work item %s to itself", req.SourceWorkItemID)
	}

	for _, id := range []string{req.SourceWorkItemID, req.TargetWorkItemID} {
		item, err := tx.GetWorkItem(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("work item %s: %w", id, err)
		}
		if item.WorkspaceID != req.WorkspaceID {
			return nil, false, invalidArgument("work item %s does not belong to workspace %s", id, req.WorkspaceID)
		}
	}

	link := &model.WorkItemLink{
		WorkspaceID:      req.WorkspaceID,
		SourceWorkItemID: req.SourceWorkItemID,
		TargetWorkItemID: req.TargetWorkItemID,
		LinkType:         req.LinkType,
		Description:      req.Description,
		CreatedBy:        req.CreatedBy,
	}

	existing, err := s.findEdge(ctx, tx, link)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if policy == DuplicateSkip {
			return existing, true, nil
		}
		return nil, false, fmt.Errorf("%w: %s %s %s", ErrConflict, link.SourceWorkItemID, link.LinkType, link.TargetWorkItemID)
	}

	if err := s.checkCycle(ctx, tx, link); err != nil {
		return nil, false, err
	}

	if err := tx.CreateLink(ctx, link); err != nil {
		return nil, false, err
	}

	if !boolOr(req.CreateInverse, true) {
		return link, false, nil
	}

	inverse := link.Inverse()
	if inverse == nil {
		return link, false, nil
	}

	// an inverse left behind by an earlier one-sided delete is reused
	existingInverse, err := s.findEdge(ctx, tx, inverse)
	if err != nil {
		return nil, false, err
	}
	if existingInverse == nil {
		if err := tx.CreateLink(ctx, inverse); err != nil {
			return nil, false, err
		}
	}

	return link, false, nil
}

// findEdge returns the stored edge equal to link, if any. A symmetric edge also
// matches its reverse.
func (s *LinkService) findEdge(ctx context.Context, tx store.Store, link *model.WorkItemLink) (*model.WorkItemLink, error) {
	links, err := tx.FindLinks(ctx, store.LinkFilter{
		SourceID: link.SourceWorkItemID,
		TargetID: link.TargetWorkItemID,
		LinkType: link.LinkType,
	})
	if err != nil || len(links) > 0 {
		return first(links), err
	}

	if !link.LinkType.IsSymmetric() {
		return nil, nil
	}

	links, err = tx.FindLinks(ctx, store.LinkFilter{
		SourceID: link.TargetWorkItemID,
		TargetID: link.SourceWorkItemID,
		LinkType: link.LinkType,
	})
	return first(links), err
}

func first(links []*model.WorkItemLink) *model.WorkItemLink {
	if len(links) == 0 {
		return nil
	}
	return links[0]
}

// checkCycle rejects a dependency edge that would close a cycle in the blocking subgraph.
// "x IS_BLOCKED_BY y" is read as "y BLOCKS x".
func (s *LinkService) checkCycle(ctx context.Context, tx store.Store, link *model.WorkItemLink) error {
	var blocker, blocked string
	switch link.LinkType {
	case model.LinkTypeBlocks:
		blocker, blocked = link.SourceWorkItemID, link.TargetWorkItemID
	case model.LinkTypeIsBlockedBy:
		blocker, blocked = link.TargetWorkItemID, link.SourceWorkItemID
	default:
		return nil
	}

	path, err := graph.Path(ctx, blocked, blocker, blockedByNeighbors(tx), graph.Options{MaxDepth: s.opts.CycleCheckMaxDepth})
	if errors.Is(err, graph.ErrDepthExceeded) {
		// a chain too deep to search is treated as a cycle
		return fmt.Errorf("%w: %w", ErrCycleDetected, err)
	}
	if err != nil {
		return err
	}
	if path == nil {
		return nil
	}

	return fmt.Errorf("%w: %s blocks %s but %s", ErrCycleDetected, blocker, blocked, strings.Join(path, " -> "))
}

// blockedByNeighbors returns the items directly blocked by an item, following
// BLOCKS edges forward and IS_BLOCKED_BY edges backward.
func blockedByNeighbors(tx store.Store) graph.NeighborFunc {
	return func(ctx context.Context, id string) ([]string, error) {
		blocks, err := tx.FindLinks(ctx, store.LinkFilter{SourceID: id, LinkType: model.LinkTypeBlocks})
		if err != nil {
			return nil, err
		}
		blockedBy, err := tx.FindLinks(ctx, store.LinkFilter{TargetID: id, LinkType: model.LinkTypeIsBlockedBy})
		if err != nil {
			return nil, err
		}

		next := mapset.NewThreadUnsafeSet[string]()
		for _, l := range blocks {
			next.Add(l.TargetWorkItemID)
		}
		for _, l := range blockedBy {
			next.Add(l.SourceWorkItemID)
		}

		return next.ToSlice(), nil
	}
}

// GetLink retrieves a link by ID.
func (s *LinkService) GetLink(ctx context.Context, id string) (*model.WorkItemLink, error) {
	link, err := s.store.GetLink(ctx, id)
	return link, translate(err)
}

// Update changes the description of a link, the only mutable field.
func (s *LinkService) Update(ctx context.Context, id string, req *UpdateLinkRequest) (*model.WorkItemLink, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if req.Description == nil {
		return s.GetLink(ctx, id)
	}

	link, err := s.store.UpdateLinkDescription(ctx, id, *req.Description)
	return link, translate(err)
}

// Delete removes a link and, when deleteInverse is set, every matching inverse edge.
// A missing inverse is not an error.
func (s *LinkService) Delete(ctx context.Context, id string, deleteInverse bool) error {
	var link *model.WorkItemLink
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		link, err = tx.GetLink(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.DeleteLink(ctx, id); err != nil {
			return err
		}

		if !deleteInverse || link.LinkType.IsSymmetric() {
			return nil
		}

		inverses, err := tx.FindLinks(ctx, store.LinkFilter{
			SourceID: link.TargetWorkItemID,
			TargetID: link.SourceWorkItemID,
			LinkType: link.LinkType.Inverse(),
		})
		if err != nil {
			return err
		}

		for _, inverse := range inverses {
			if err := tx.DeleteLink(ctx, inverse.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return translate(err)
	}

	s.invalidate(ctx, link)
	logrus.Infof("link deleted: %s %s %s (%s)", link.SourceWorkItemID, link.LinkType, link.TargetWorkItemID, link.ID)

	return nil
}

// DeleteAllForWorkItem removes every link touching a work item. It is called by the
// work item lifecycle when an item is deleted, and by the dangling link sweeper.
func (s *LinkService) DeleteAllForWorkItem(ctx context.Context, workItemID string) (int64, error) {
	var touched []*model.WorkItemLink
	var deleted int64
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		outgoing, err := tx.FindLinks(ctx, store.LinkFilter{SourceID: workItemID})
		if err != nil {
			return err
		}
		incoming, err := tx.FindLinks(ctx, store.LinkFilter{TargetID: workItemID})
		if err != nil {
			return err
		}
		touched = append(outgoing, incoming...)

		deleted, err = tx.DeleteAllLinksForWorkItem(ctx, workItemID)
		return err
	})
	if err != nil {
		return 0, translate(err)
	}

	s.invalidate(ctx, touched...)

	return deleted, nil
}

// invalidate drops cached blocked statuses affected by dependency links.
func (s *LinkService) invalidate(ctx context.Context, links ...*model.WorkItemLink) {
	ids := mapset.NewThreadUnsafeSet[string]()
	for _, l := range links {
		if l == nil || l.LinkType.Category() != model.LinkCategoryDependency {
			continue
		}
		ids.Add(l.SourceWorkItemID)
		ids.Add(l.TargetWorkItemID)
	}

	if ids.Cardinality() == 0 {
		return
	}

	if err := s.cache.InvalidateBlockedStatus(ctx, ids.ToSlice()...); err != nil {
		logrus.Warnf("failed to invalidate blocked status cache: %v", err)
	}
}
