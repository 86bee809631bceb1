package model

import "time"

// WorkItemStatus is the workflow state of a work item.
type WorkItemStatus string

const (
	WorkItemStatusTodo       WorkItemStatus = "TODO"
	WorkItemStatusInProgress WorkItemStatus = "IN_PROGRESS"
	WorkItemStatusInReview   WorkItemStatus = "IN_REVIEW"
	WorkItemStatusDone       WorkItemStatus = "DONE"
	WorkItemStatusCancelled  WorkItemStatus = "CANCELLED"
)

// WorkItem is owned by the work-item lifecycle manager; the link subsystem only reads it
// to check workspace ownership and to render endpoint summaries.
type WorkItem struct {
	ID          string         `gorm:"primaryKey;uuid;not null" json:"id"`
	WorkspaceID string         `gorm:"uuid;not null;index" json:"workspaceId"`
	ProjectID   string         `gorm:"uuid;not null;index" json:"projectId"`
	Key         string         `gorm:"not null" json:"key"`
	Title       string         `gorm:"not null" json:"title"`
	Type        string         `gorm:"size:32" json:"type"`
	Status      WorkItemStatus `gorm:"size:32;not null;default:TODO" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (w *WorkItem) TableName() string {
	return "work_items"
}

// IsDone reports whether the item reached the terminal done state.
func (w *WorkItem) IsDone() bool {
	return w.Status == WorkItemStatusDone
}

// WorkItemSummary is the endpoint view rendered next to a link.
type WorkItemSummary struct {
	ID     string         `json:"id"`
	Key    string         `json:"key"`
	Title  string         `json:"title"`
	Type   string         `json:"type,omitempty"`
	Status WorkItemStatus `json:"status"`
}

func (w *WorkItem) Summary() WorkItemSummary {
	return WorkItemSummary{
		ID:     w.ID,
		Key:    w.Key,
		Title:  w.Title,
		Type:   w.Type,
		Status: w.Status,
	}
}
