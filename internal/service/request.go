package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emrgen/worklink/internal/model"
	"github.com/go-playground/validator/v10"
)

// DuplicatePolicy decides what happens when a requested edge already exists.
type DuplicatePolicy string

const (
	DuplicateReject DuplicatePolicy = "reject"
	DuplicateSkip   DuplicatePolicy = "skip"
)

// Direction selects which edges of a work item are read.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case "":
		return DirectionBoth, nil
	case DirectionOutgoing, DirectionIncoming, DirectionBoth:
		return d, nil
	default:
		return "", invalidArgument("unknown direction %q", s)
	}
}

type CreateLinkRequest struct {
	WorkspaceID      string          `json:"workspaceId" validate:"required,max=64"`
	SourceWorkItemID string          `json:"sourceWorkItemId" validate:"required,max=64"`
	TargetWorkItemID string          `json:"targetWorkItemId" validate:"required,max=64"`
	LinkType         model.LinkType  `json:"linkType" validate:"required,linktype"`
	Description      string          `json:"description,omitempty" validate:"max=1000"`
	CreateInverse    *bool           `json:"createInverse,omitempty"`
	OnDuplicate      DuplicatePolicy `json:"onDuplicate,omitempty" validate:"omitempty,oneof=reject skip"`
	CreatedBy        string          `json:"-" validate:"required"`
}

type UpdateLinkRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type BulkLinkEntry struct {
	SourceWorkItemID string         `json:"sourceWorkItemId" validate:"required,max=64"`
	TargetWorkItemID string         `json:"targetWorkItemId" validate:"required,max=64"`
	LinkType         model.LinkType `json:"linkType" validate:"required,linktype"`
	Description      string         `json:"description,omitempty" validate:"max=1000"`
}

type BulkCreateRequest struct {
	WorkspaceID    string          `json:"workspaceId" validate:"required,max=64"`
	Links          []BulkLinkEntry `json:"links" validate:"required,min=1,max=500,dive"`
	CreateInverses *bool           `json:"createInverses,omitempty"`
	OnDuplicate    DuplicatePolicy `json:"onDuplicate,omitempty" validate:"omitempty,oneof=reject skip"`
	CreatedBy      string          `json:"-" validate:"required"`
}

type BulkCreateResponse struct {
	Links   []*model.WorkItemLink `json:"links"`
	Skipped int                   `json:"skipped"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("linktype", func(fl validator.FieldLevel) bool {
		return model.LinkType(fl.Field().String()).Valid()
	})
	if err != nil {
		panic(err)
	}

	return v
}

// validateRequest checks the struct tags of a request and reports violations as ErrInvalidArgument.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidArgument("%v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}

	return invalidArgument("%s", strings.Join(msgs, "; "))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func policyOr(p DuplicatePolicy, def DuplicatePolicy) DuplicatePolicy {
	if p == "" {
		return def
	}
	return p
}
