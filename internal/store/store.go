package store

import (
	"context"

	"github.com/emrgen/worklink/internal/model"
)

type Store interface {
	LinkStore
	WorkItemStore
	MemberStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

// LinkFilter selects links. Empty fields are ignored, slice fields match with IN.
type LinkFilter struct {
	WorkspaceID string
	SourceID    string
	TargetID    string
	LinkType    model.LinkType
	SourceIDs   []string
	TargetIDs   []string
	LinkTypes   []model.LinkType
}

// LinkStore is the persistence contract for link edges. It performs no
// cross-edge reasoning; invariants are enforced by the caller.
type LinkStore interface {
	// CreateLink inserts a link, generating its id when empty.
	CreateLink(ctx context.Context, link *model.WorkItemLink) error
	// CreateLinks inserts links in bulk.
	CreateLinks(ctx context.Context, links []*model.WorkItemLink) error
	// GetLink retrieves a link by ID.
	GetLink(ctx context.Context, id string) (*model.WorkItemLink, error)
	// FindLinks retrieves the links matching the filter, oldest first.
	FindLinks(ctx context.Context, filter LinkFilter) ([]*model.WorkItemLink, error)
	// FindDanglingLinks retrieves links with at least one endpoint missing from the work items table.
	FindDanglingLinks(ctx context.Context, limit int) ([]*model.WorkItemLink, error)
	// UpdateLinkDescription sets the description of a link.
	UpdateLinkDescription(ctx context.Context, id string, description string) (*model.WorkItemLink, error)
	// DeleteLink deletes a link by ID.
	DeleteLink(ctx context.Context, id string) error
	// DeleteAllLinksForWorkItem deletes every link touching the work item.
	DeleteAllLinksForWorkItem(ctx context.Context, workItemID string) (int64, error)
}

// WorkItemStore reads the work items owned by the work-item lifecycle manager.
type WorkItemStore interface {
	// CreateWorkItem creates a work item.
	CreateWorkItem(ctx context.Context, item *model.WorkItem) error
	// GetWorkItem retrieves a work item by ID.
	GetWorkItem(ctx context.Context, id string) (*model.WorkItem, error)
	// ListWorkItemsByIDs retrieves the work items with the given IDs, missing ids are skipped.
	ListWorkItemsByIDs(ctx context.Context, ids []string) ([]*model.WorkItem, error)
	// ListProjectWorkItemIDs retrieves the ids of all work items of a project.
	ListProjectWorkItemIDs(ctx context.Context, projectID string) ([]string, error)
	// UpdateWorkItemStatus sets the status of a work item.
	UpdateWorkItemStatus(ctx context.Context, id string, status model.WorkItemStatus) error
	// DeleteWorkItem deletes a work item. Its links are left to the caller.
	DeleteWorkItem(ctx context.Context, id string) error
}

type MemberStore interface {
	// AddWorkspaceMember grants a user access to a workspace.
	AddWorkspaceMember(ctx context.Context, member *model.WorkspaceMember) error
	// IsWorkspaceMember checks whether a user belongs to a workspace.
	IsWorkspaceMember(ctx context.Context, workspaceID, userID string) (bool, error)
}
