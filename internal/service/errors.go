package service

import (
	"errors"
	"fmt"

	"github.com/emrgen/worklink/internal/store"
)

var (
	// ErrUnauthorized is returned when the caller is not a member of the target workspace.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is returned for malformed input, self links and cross workspace links.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when an edge with the same source, target and type exists.
	ErrConflict = errors.New("link already exists")
	// ErrCycleDetected is returned when a blocking edge would close a cycle.
	ErrCycleDetected = errors.New("blocking cycle detected")
	// ErrNotFound is returned when a link or work item does not exist.
	ErrNotFound = errors.New("not found")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// translate maps store errors onto the service taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrLinkNotFound), errors.Is(err, store.ErrWorkItemNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrDuplicateLink):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}
