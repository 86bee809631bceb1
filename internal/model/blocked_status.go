package model

// BlockedStatus tells whether a work item waits on unfinished blockers.
type BlockedStatus struct {
	WorkItemID string            `json:"workItemId"`
	IsBlocked  bool              `json:"isBlocked"`
	BlockedBy  []WorkItemSummary `json:"blockedBy"`
}
