// Package graph holds traversal helpers over link edges fetched lazily from a store.
package graph

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrDepthExceeded is returned when a search goes deeper than Options.MaxDepth.
var ErrDepthExceeded = errors.New("graph search exceeded max depth")

// NeighborFunc returns the nodes reachable from id over a single edge.
type NeighborFunc func(ctx context.Context, id string) ([]string, error)

// Options tune a search. The zero value searches without a depth limit.
type Options struct {
	MaxDepth int
}

// Reachable reports whether to can be reached from `from` by following next.
func Reachable(ctx context.Context, from, to string, next NeighborFunc, opts Options) (bool, error) {
	path, err := Path(ctx, from, to, next, opts)
	return path != nil, err
}

// Path returns the first path found from `from` to `to`, both included, or nil when
// `to` is unreachable. Every node is expanded at most once per search, so the
// cost is one call to next per reachable node.
func Path(ctx context.Context, from, to string, next NeighborFunc, opts Options) ([]string, error) {
	s := &search{
		target:  to,
		next:    next,
		visited: mapset.NewThreadUnsafeSet[string](),
		opts:    opts,
	}

	found, err := s.visit(ctx, from, 0)
	if err != nil || !found {
		return nil, err
	}

	return s.path, nil
}

type search struct {
	target  string
	next    NeighborFunc
	visited mapset.Set[string]
	opts    Options
	path    []string
}

func (s *search) visit(ctx context.Context, id string, depth int) (bool, error) {
	if id == s.target {
		s.path = append(s.path, id)
		return true, nil
	}

	if !s.visited.Add(id) {
		return false, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	neighbors, err := s.next(ctx, id)
	if err != nil {
		return false, err
	}

	// a node at the limit only fails the search when it leads somewhere unexplored
	if s.opts.MaxDepth > 0 && depth >= s.opts.MaxDepth {
		for _, n := range neighbors {
			if !s.visited.Contains(n) {
				return false, ErrDepthExceeded
			}
		}
		return false, nil
	}

	s.path = append(s.path, id)
	for _, n := range neighbors {
		found, err := s.visit(ctx, n, depth+1)
		if err != nil || found {
			return found, err
		}
	}
	s.path = s.path[:len(s.path)-1]

	return false, nil
}
