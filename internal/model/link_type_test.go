package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkType_InverseIsInvolution(t *testing.T) {
	for _, lt := range LinkTypes() {
		t.Run(lt.String(), func(t *testing.T) {
			assert.True(t, lt.Valid())
			assert.True(t, lt.Inverse().Valid())
			assert.Equal(t, lt, lt.Inverse().Inverse())
			assert.Equal(t, lt.Category(), lt.Inverse().Category())
		})
	}
}

func TestLinkType_OnlyRelatesToIsSymmetric(t *testing.T) {
	for _, lt := range LinkTypes() {
		assert.Equal(t, lt == LinkTypeRelatesTo, lt.IsSymmetric(), lt.String())
	}
	assert.False(t, LinkType("NOPE").IsSymmetric())
}

func TestParseLinkType(t *testing.T) {
	lt, err := ParseLinkType(" blocks ")
	require.NoError(t, err)
	assert.Equal(t, LinkTypeBlocks, lt)

	_, err = ParseLinkType("depends_on")
	assert.Error(t, err)
}

func TestLinkTypeMetadata_IsACopy(t *testing.T) {
	meta := LinkTypeMetadata()
	assert.Len(t, meta, len(LinkTypes()))
	assert.Equal(t, LinkTypeIsBlockedBy, meta[LinkTypeBlocks].Inverse)

	delete(meta, LinkTypeBlocks)
	assert.True(t, LinkTypeBlocks.Valid())
}

func TestWorkItemLink_Inverse(t *testing.T) {
	link := &WorkItemLink{
		WorkspaceID:      "ws",
		SourceWorkItemID: "a",
		TargetWorkItemID: "b",
		LinkType:         LinkTypeIsChildOf,
		CreatedBy:        "user",
	}

	inv := link.Inverse()
	require.NotNil(t, inv)
	assert.Equal(t, "b", inv.SourceWorkItemID)
	assert.Equal(t, "a", inv.TargetWorkItemID)
	assert.Equal(t, LinkTypeIsParentOf, inv.LinkType)
	assert.Equal(t, "ws", inv.WorkspaceID)
	assert.Empty(t, inv.ID)

	link.LinkType = LinkTypeRelatesTo
	assert.Nil(t, link.Inverse())

	assert.Equal(t, "b", link.Other("a"))
	assert.Equal(t, "a", link.Other("b"))
}
