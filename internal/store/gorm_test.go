package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLink(f *tester.Fixture, source, target string, lt model.LinkType) *model.WorkItemLink {
	return &model.WorkItemLink{
		WorkspaceID:      f.WorkspaceID,
		SourceWorkItemID: source,
		TargetWorkItemID: target,
		LinkType:         lt,
		CreatedBy:        "user-1",
	}
}

func testStore(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	s := NewGormStore(db)
	f := tester.NewFixture(s)

	a := f.WorkItem(t, "a")
	b := f.WorkItem(t, "b")
	c := f.WorkItem(t, "c")

	t.Run("create and get round trip", func(t *testing.T) {
		link := newLink(f, a.ID, b.ID, model.LinkTypeBlocks)
		link.Description = "a before b"
		require.NoError(t, s.CreateLink(ctx, link))
		require.NotEmpty(t, link.ID)

		got, err := s.GetLink(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, f.WorkspaceID, got.WorkspaceID)
		assert.Equal(t, a.ID, got.SourceWorkItemID)
		assert.Equal(t, b.ID, got.TargetWorkItemID)
		assert.Equal(t, model.LinkTypeBlocks, got.LinkType)
		assert.Equal(t, "a before b", got.Description)
		assert.Equal(t, "user-1", got.CreatedBy)
	})

	t.Run("unique index backstop", func(t *testing.T) {
		err := s.CreateLink(ctx, newLink(f, a.ID, b.ID, model.LinkTypeBlocks))
		assert.ErrorIs(t, err, ErrDuplicateLink)
	})

	t.Run("get missing link", func(t *testing.T) {
		_, err := s.GetLink(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("bulk create and filters", func(t *testing.T) {
		require.NoError(t, s.CreateLinks(ctx, []*model.WorkItemLink{
			newLink(f, b.ID, c.ID, model.LinkTypeBlocks),
			newLink(f, c.ID, a.ID, model.LinkTypeRelatesTo),
		}))

		bySource, err := s.FindLinks(ctx, LinkFilter{SourceID: b.ID})
		require.NoError(t, err)
		require.Len(t, bySource, 1)
		assert.Equal(t, c.ID, bySource[0].TargetWorkItemID)

		blocks, err := s.FindLinks(ctx, LinkFilter{WorkspaceID: f.WorkspaceID, LinkType: model.LinkTypeBlocks})
		require.NoError(t, err)
		assert.Len(t, blocks, 2)

		in, err := s.FindLinks(ctx, LinkFilter{SourceIDs: []string{a.ID, c.ID}})
		require.NoError(t, err)
		assert.Len(t, in, 2)

		typed, err := s.FindLinks(ctx, LinkFilter{TargetIDs: []string{a.ID, c.ID}, LinkTypes: []model.LinkType{model.LinkTypeRelatesTo}})
		require.NoError(t, err)
		require.Len(t, typed, 1)
		assert.Equal(t, c.ID, typed[0].SourceWorkItemID)

		none, err := s.FindLinks(ctx, LinkFilter{WorkspaceID: uuid.New().String()})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update description", func(t *testing.T) {
		links, err := s.FindLinks(ctx, LinkFilter{SourceID: a.ID, TargetID: b.ID})
		require.NoError(t, err)
		require.Len(t, links, 1)

		updated, err := s.UpdateLinkDescription(ctx, links[0].ID, "changed")
		require.NoError(t, err)
		assert.Equal(t, "changed", updated.Description)

		_, err = s.UpdateLinkDescription(ctx, uuid.New().String(), "x")
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		link := newLink(f, a.ID, c.ID, model.LinkTypeCauses)
		require.NoError(t, s.CreateLink(ctx, link))
		require.NoError(t, s.DeleteLink(ctx, link.ID))
		assert.ErrorIs(t, s.DeleteLink(ctx, link.ID), ErrLinkNotFound)
	})

	t.Run("dangling links and cascade", func(t *testing.T) {
		d := f.WorkItem(t, "d")
		require.NoError(t, s.CreateLink(ctx, newLink(f, d.ID, a.ID, model.LinkTypeDuplicates)))
		require.NoError(t, s.CreateLink(ctx, newLink(f, b.ID, d.ID, model.LinkTypeIsParentOf)))

		dangling, err := s.FindDanglingLinks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, dangling)

		require.NoError(t, s.DeleteWorkItem(ctx, d.ID))
		dangling, err = s.FindDanglingLinks(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, dangling, 2)

		n, err := s.DeleteAllLinksForWorkItem(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		dangling, err = s.FindDanglingLinks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, dangling)
	})

	t.Run("work items", func(t *testing.T) {
		other := f.WorkItemIn(t, uuid.New().String(), "other project")

		ids, err := s.ListProjectWorkItemIDs(ctx, f.ProjectID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, ids)

		items, err := s.ListWorkItemsByIDs(ctx, []string{a.ID, other.ID, uuid.New().String()})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		require.NoError(t, s.UpdateWorkItemStatus(ctx, a.ID, model.WorkItemStatusDone))
		got, err := s.GetWorkItem(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDone())

		_, err = s.GetWorkItem(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrWorkItemNotFound)
		assert.ErrorIs(t, s.UpdateWorkItemStatus(ctx, uuid.New().String(), model.WorkItemStatusDone), ErrWorkItemNotFound)
	})

	t.Run("membership", func(t *testing.T) {
		ok, err := s.IsWorkspaceMember(ctx, f.WorkspaceID, "user-1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.AddWorkspaceMember(ctx, &model.WorkspaceMember{WorkspaceID: f.WorkspaceID, UserID: "user-1", Role: "member"}))
		ok, err = s.IsWorkspaceMember(ctx, f.WorkspaceID, "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		link := newLink(f, c.ID, b.ID, model.LinkTypeSplitFrom)
		err := s.Transaction(ctx, func(tx Store) error {
			if err := tx.CreateLink(ctx, link); err != nil {
				return err
			}
			return tx.CreateLink(ctx, newLink(f, a.ID, b.ID, model.LinkTypeBlocks))
		})
		assert.ErrorIs(t, err, ErrDuplicateLink)

		_, err = s.GetLink(ctx, link.ID)
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})
}

func TestGormStore_Sqlite(t *testing.T) {
	testStore(t, tester.NewDB(t))
}

func TestGormStore_Postgres(t *testing.T) {
	testStore(t, tester.NewPostgresDB(t))
}

func TestGormStore_LargeIDSet(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(tester.NewDB(t))
	f := tester.NewFixture(s)

	var ids []string
	for i := 0; i < inChunkSize+20; i++ {
		ids = append(ids, f.WorkItem(t, "item").ID)
	}

	items, err := s.ListWorkItemsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, items, len(ids))

	last := len(ids) - 1
	across := newLink(f, ids[0], ids[last], model.LinkTypeRelatesTo)
	back := newLink(f, ids[last], ids[1], model.LinkTypeBlocks)
	inner := newLink(f, ids[last-1], ids[2], model.LinkTypeCauses)
	for _, link := range []*model.WorkItemLink{across, back, inner} {
		require.NoError(t, s.CreateLink(ctx, link))
	}

	links, err := s.FindLinks(ctx, LinkFilter{SourceIDs: ids, TargetIDs: ids})
	require.NoError(t, err)
	require.Len(t, links, 3)
	for i := 1; i < len(links); i++ {
		assert.False(t, links[i].CreatedAt.Before(links[i-1].CreatedAt))
	}

	links, err = s.FindLinks(ctx, LinkFilter{SourceIDs: ids[inChunkSize:]})
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = s.FindLinks(ctx, LinkFilter{SourceIDs: ids, LinkTypes: []model.LinkType{model.LinkTypeBlocks}})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, back.ID, links[0].ID)
}

func TestGormStore_FindLinksBeyondBindLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("inserts more work items than a single sqlite statement can bind")
	}

	ctx := context.Background()
	db := tester.NewDB(t)
	s := NewGormStore(db)
	f := tester.NewFixture(s)

	items := make([]*model.WorkItem, 33000)
	ids := make([]string, len(items))
	for i := range items {
		items[i] = &model.WorkItem{
			ID:          uuid.New().String(),
			WorkspaceID: f.WorkspaceID,
			ProjectID:   f.ProjectID,
			Key:         fmt.Sprintf("WL-%d", i+1),
			Title:       "item",
			Status:      model.WorkItemStatusTodo,
		}
		ids[i] = items[i].ID
	}
	require.NoError(t, db.CreateInBatches(items, 1000).Error)

	link := newLink(f, ids[0], ids[len(ids)-1], model.LinkTypeRelatesTo)
	require.NoError(t, s.CreateLink(ctx, link))

	links, err := s.FindLinks(ctx, LinkFilter{SourceIDs: ids})
	require.NoError(t, err)
	require.Len(t, links, 1)

	links, err = s.FindLinks(ctx, LinkFilter{SourceIDs: ids, TargetIDs: ids})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, link.ID, links[0].ID)
}
