package store

import "errors"

var (
	ErrLinkNotFound     = errors.New("link not found")
	ErrWorkItemNotFound = errors.New("work item not found")
	// ErrDuplicateLink is returned when the storage unique index rejects an edge.
	ErrDuplicateLink = errors.New("link already exists")
)
