package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkItemLink represents a directed, typed edge between two work items.
// Edges are owned by the workspace, neither endpoint owns the link.
// The inverse edge of a bidirectional link is stored as a separate row.
type WorkItemLink struct {
	ID               string    `gorm:"primaryKey;uuid;not null" json:"id"`
	WorkspaceID      string    `gorm:"uuid;not null;index:idx_work_item_links_workspace_id" json:"workspaceId"`
	SourceWorkItemID string    `gorm:"uuid;not null;index:idx_work_item_links_source_type;uniqueIndex:idx_work_item_links_edge" json:"sourceWorkItemId"`
	TargetWorkItemID string    `gorm:"uuid;not null;index:idx_work_item_links_target_type;uniqueIndex:idx_work_item_links_edge" json:"targetWorkItemId"`
	LinkType         LinkType  `gorm:"size:32;not null;index:idx_work_item_links_source_type;index:idx_work_item_links_target_type;uniqueIndex:idx_work_item_links_edge" json:"linkType"`
	Description      string    `gorm:"size:1000" json:"description,omitempty"`
	CreatedBy        string    `gorm:"not null" json:"createdBy"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (l *WorkItemLink) TableName() string {
	return "work_item_links"
}

// BeforeCreate assigns an id to links created without one.
func (l *WorkItemLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// Inverse returns the edge looking the other way, or nil for symmetric types.
func (l *WorkItemLink) Inverse() *WorkItemLink {
	if l.LinkType.IsSymmetric() {
		return nil
	}

	return &WorkItemLink{
		WorkspaceID:      l.WorkspaceID,
		SourceWorkItemID: l.TargetWorkItemID,
		TargetWorkItemID: l.SourceWorkItemID,
		LinkType:         l.LinkType.Inverse(),
		Description:      l.Description,
		CreatedBy:        l.CreatedBy,
	}
}

// Other returns the endpoint opposite to workItemID.
func (l *WorkItemLink) Other(workItemID string) string {
	if l.SourceWorkItemID == workItemID {
		return l.TargetWorkItemID
	}
	return l.SourceWorkItemID
}
