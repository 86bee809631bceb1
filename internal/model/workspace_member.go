package model

import "time"

// WorkspaceMember grants a user access to a workspace.
type WorkspaceMember struct {
	WorkspaceID string `gorm:"primaryKey;uuid;not null"`
	UserID      string `gorm:"primaryKey;not null;index"`
	Role        string `gorm:"size:32;not null;default:member"`
	CreatedAt   time.Time
}

func (WorkspaceMember) TableName() string {
	return "workspace_members"
}
