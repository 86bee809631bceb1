package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adjacency map[string][]string

func (a adjacency) next(calls map[string]int) NeighborFunc {
	return func(ctx context.Context, id string) ([]string, error) {
		if calls != nil {
			calls[id]++
		}
		return a[id], nil
	}
}

func TestReachable(t *testing.T) {
	g := adjacency{
		"a": {"b"},
		"b": {"c", "d"},
		"d": {"e"},
	}

	tests := []struct {
		name     string
		from, to string
		want     bool
	}{
		{"direct edge", "a", "b", true},
		{"transitive", "a", "e", true},
		{"same node", "c", "c", true},
		{"wrong direction", "e", "a", false},
		{"disconnected", "x", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reachable(context.Background(), tt.from, tt.to, g.next(nil), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath(t *testing.T) {
	g := adjacency{
		"a": {"x", "b"},
		"b": {"c"},
	}

	path, err := Path(context.Background(), "a", "c", g.next(nil), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, path)

	path, err = Path(context.Background(), "c", "a", g.next(nil), Options{})
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestReachable_ExistingCycleTerminates(t *testing.T) {
	g := adjacency{
		"a": {"b"},
		"b": {"c"},
		"c": {"a", "b"},
	}
	calls := map[string]int{}

	got, err := Reachable(context.Background(), "a", "z", g.next(calls), Options{})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, calls)
}

func TestReachable_DiamondExpandsOnce(t *testing.T) {
	g := adjacency{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
	}
	calls := map[string]int{}

	got, err := Reachable(context.Background(), "a", "z", g.next(calls), Options{})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, 1, calls["d"])
}

func TestReachable_MaxDepth(t *testing.T) {
	g := adjacency{
		"a": {"b"},
		"b": {"c"},
		"c": {"d"},
	}

	got, err := Reachable(context.Background(), "a", "d", g.next(nil), Options{MaxDepth: 5})
	require.NoError(t, err)
	assert.True(t, got)

	_, err = Reachable(context.Background(), "a", "d", g.next(nil), Options{MaxDepth: 2})
	assert.ErrorIs(t, err, ErrDepthExceeded)
}

func TestReachable_NeighborError(t *testing.T) {
	boom := errors.New("store unavailable")
	next := func(ctx context.Context, id string) ([]string, error) {
		return nil, boom
	}

	_, err := Reachable(context.Background(), "a", "b", next, Options{})
	assert.ErrorIs(t, err, boom)
}

func TestReachable_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Reachable(ctx, "a", "b", adjacency{"a": {"b"}}.next(nil), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReachable_MaxDepthStopsAtLeaves(t *testing.T) {
	g := adjacency{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	// c sits at the limit and only leads back to a visited node
	got, err := Reachable(context.Background(), "a", "z", g.next(nil), Options{MaxDepth: 2})
	require.NoError(t, err)
	assert.False(t, got)

	// the chain ends exactly at the limit
	chain := adjacency{"b": {"c"}}
	got, err = Reachable(context.Background(), "b", "a", chain.next(nil), Options{MaxDepth: 1})
	require.NoError(t, err)
	assert.False(t, got)

	// the target one step past the limit is still beyond reach
	_, err = Reachable(context.Background(), "b", "d", adjacency{"b": {"c"}, "c": {"d"}}.next(nil), Options{MaxDepth: 1})
	assert.ErrorIs(t, err, ErrDepthExceeded)
}
