package model

import (
	"fmt"
	"strings"
)

// LinkType is the relationship carried by a WorkItemLink.
type LinkType string

const (
	LinkTypeBlocks         LinkType = "BLOCKS"
	LinkTypeIsBlockedBy    LinkType = "IS_BLOCKED_BY"
	LinkTypeRelatesTo      LinkType = "RELATES_TO"
	LinkTypeDuplicates     LinkType = "DUPLICATES"
	LinkTypeIsDuplicatedBy LinkType = "IS_DUPLICATED_BY"
	LinkTypeClones         LinkType = "CLONES"
	LinkTypeIsClonedBy     LinkType = "IS_CLONED_BY"
	LinkTypeSplitFrom      LinkType = "SPLIT_FROM"
	LinkTypeSplitTo        LinkType = "SPLIT_TO"
	LinkTypeIsChildOf      LinkType = "IS_CHILD_OF"
	LinkTypeIsParentOf     LinkType = "IS_PARENT_OF"
	LinkTypeCauses         LinkType = "CAUSES"
	LinkTypeIsCausedBy     LinkType = "IS_CAUSED_BY"
)

// LinkCategory groups link types for display.
type LinkCategory string

const (
	LinkCategoryDependency   LinkCategory = "dependency"
	LinkCategoryRelationship LinkCategory = "relationship"
	LinkCategoryDerivation   LinkCategory = "derivation"
	LinkCategoryHierarchy    LinkCategory = "hierarchy"
	LinkCategoryCause        LinkCategory = "cause"
)

// LinkTypeInfo describes a link type for clients.
type LinkTypeInfo struct {
	Label       string       `json:"label"`
	Inverse     LinkType     `json:"inverse"`
	Category    LinkCategory `json:"category"`
	Description string       `json:"description"`
}

var linkTypes = map[LinkType]LinkTypeInfo{
	LinkTypeBlocks: {
		Label: "blocks", Inverse: LinkTypeIsBlockedBy, Category: LinkCategoryDependency,
		Description: "This item must be completed before the target can proceed",
	},
	LinkTypeIsBlockedBy: {
		Label: "is blocked by", Inverse: LinkTypeBlocks, Category: LinkCategoryDependency,
		Description: "This item cannot proceed until the target is completed",
	},
	LinkTypeRelatesTo: {
		Label: "relates to", Inverse: LinkTypeRelatesTo, Category: LinkCategoryRelationship,
		Description: "General relationship between two items",
	},
	LinkTypeDuplicates: {
		Label: "duplicates", Inverse: LinkTypeIsDuplicatedBy, Category: LinkCategoryRelationship,
		Description: "This item is a duplicate of the target",
	},
	LinkTypeIsDuplicatedBy: {
		Label: "is duplicated by", Inverse: LinkTypeDuplicates, Category: LinkCategoryRelationship,
		Description: "The target is a duplicate of this item",
	},
	LinkTypeClones: {
		Label: "clones", Inverse: LinkTypeIsClonedBy, Category: LinkCategoryDerivation,
		Description: "This item was cloned from the target",
	},
	LinkTypeIsClonedBy: {
		Label: "is cloned by", Inverse: LinkTypeClones, Category: LinkCategoryDerivation,
		Description: "The target was cloned from this item",
	},
	LinkTypeSplitFrom: {
		Label: "split from", Inverse: LinkTypeSplitTo, Category: LinkCategoryDerivation,
		Description: "This item was split out of the target",
	},
	LinkTypeSplitTo: {
		Label: "split to", Inverse: LinkTypeSplitFrom, Category: LinkCategoryDerivation,
		Description: "The target was split out of this item",
	},
	LinkTypeIsChildOf: {
		Label: "is child of", Inverse: LinkTypeIsParentOf, Category: LinkCategoryHierarchy,
		Description: "This item is part of the target",
	},
	LinkTypeIsParentOf: {
		Label: "is parent of", Inverse: LinkTypeIsChildOf, Category: LinkCategoryHierarchy,
		Description: "The target is part of this item",
	},
	LinkTypeCauses: {
		Label: "causes", Inverse: LinkTypeIsCausedBy, Category: LinkCategoryCause,
		Description: "This item causes the target",
	},
	LinkTypeIsCausedBy: {
		Label: "is caused by", Inverse: LinkTypeCauses, Category: LinkCategoryCause,
		Description: "This item is caused by the target",
	},
}

// ParseLinkType parses a link type name, case-insensitively.
func ParseLinkType(s string) (LinkType, error) {
	t := LinkType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown link type %q", s)
	}
	return t, nil
}

func (t LinkType) Valid() bool {
	_, ok := linkTypes[t]
	return ok
}

// Inverse returns the type of the edge looking the other way.
func (t LinkType) Inverse() LinkType {
	return linkTypes[t].Inverse
}

func (t LinkType) Category() LinkCategory {
	return linkTypes[t].Category
}

// IsSymmetric reports whether the type is its own inverse.
func (t LinkType) IsSymmetric() bool {
	return t.Valid() && t.Inverse() == t
}

func (t LinkType) String() string {
	return string(t)
}

// LinkTypes returns all known link types in declaration order.
func LinkTypes() []LinkType {
	return []LinkType{
		LinkTypeBlocks, LinkTypeIsBlockedBy,
		LinkTypeRelatesTo, LinkTypeDuplicates, LinkTypeIsDuplicatedBy,
		LinkTypeClones, LinkTypeIsClonedBy, LinkTypeSplitFrom, LinkTypeSplitTo,
		LinkTypeIsChildOf, LinkTypeIsParentOf,
		LinkTypeCauses, LinkTypeIsCausedBy,
	}
}

// LinkTypeMetadata returns a copy of the static link type table.
func LinkTypeMetadata() map[LinkType]LinkTypeInfo {
	out := make(map[LinkType]LinkTypeInfo, len(linkTypes))
	for k, v := range linkTypes {
		out[k] = v
	}
	return out
}
