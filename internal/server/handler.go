package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/service"
)

const maxBodyBytes = 1 << 20

// LinkHandler serves the work item link API.
type LinkHandler struct {
	links   *service.LinkService
	members MembershipChecker
}

func NewLinkHandler(links *service.LinkService, members MembershipChecker) *LinkHandler {
	return &LinkHandler{
		links:   links,
		members: members,
	}
}

// Register adds the link routes to mux. Every route requires an authenticated caller.
func (h *LinkHandler) Register(mux *http.ServeMux, verifier TokenVerifier) {
	routes := map[string]http.HandlerFunc{
		"POST /v1/work-item-links":                            h.createLink,
		"GET /v1/work-item-links":                             h.getLinksForItem,
		"GET /v1/work-item-links/project":                     h.getLinksForProject,
		"GET /v1/work-item-links/types":                       h.getLinkTypes,
		"GET /v1/work-item-links/blocked-status/{workItemId}": h.getBlockedStatus,
		"GET /v1/work-item-links/{linkId}":                    h.getLink,
		"PATCH /v1/work-item-links/{linkId}":                  h.updateLink,
		"DELETE /v1/work-item-links/{linkId}":                 h.deleteLink,
		"POST /v1/work-item-links/bulk":                       h.bulkCreateLinks,
		"DELETE /v1/work-items/{workItemId}/links":            h.deleteLinksForWorkItem,
		"POST /v1/work-items/{workItemId}/status-changed":     h.workItemStatusChanged,
	}

	for pattern, handler := range routes {
		mux.Handle(pattern, authenticate(verifier, handler))
	}
}

// authorize checks that the caller is a member of the workspace.
func (h *LinkHandler) authorize(ctx context.Context, workspaceID string) error {
	userID, ok := UserFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no authenticated user", service.ErrUnauthorized)
	}

	member, err := h.members.IsWorkspaceMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: user %s is not a member of workspace %s", service.ErrUnauthorized, userID, workspaceID)
	}

	return nil
}

// authorizeWorkItem checks the caller against the workspace of a work item.
func (h *LinkHandler) authorizeWorkItem(ctx context.Context, workItemID string) error {
	item, err := h.links.WorkItem(ctx, workItemID)
	if err != nil {
		return err
	}
	return h.authorize(ctx, item.WorkspaceID)
}

// authorizeLink checks the caller against the workspace of a link and returns the link.
func (h *LinkHandler) authorizeLink(ctx context.Context, linkID string) (*model.WorkItemLink, error) {
	link, err := h.links.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, link.WorkspaceID); err != nil {
		return nil, err
	}
	return link, nil
}

func decodeBody(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidArgument, err)
	}
	return nil
}

func requireParam(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: missing %s", service.ErrInvalidArgument, name)
	}
	return nil
}

func (h *LinkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLinkRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireParam("workspaceId", req.WorkspaceID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), req.WorkspaceID); err != nil {
		writeError(w, r, err)
		return
	}

	req.CreatedBy, _ = UserFromContext(r.Context())
	link, err := h.links.Create(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

func (h *LinkHandler) bulkCreateLinks(w http.ResponseWriter, r *http.Request) {
	var req service.BulkCreateRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireParam("workspaceId", req.WorkspaceID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), req.WorkspaceID); err != nil {
		writeError(w, r, err)
		return
	}

	req.CreatedBy, _ = UserFromContext(r.Context())
	res, err := h.links.BulkCreate(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *LinkHandler) getLinksForItem(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	workItemID := query.Get("workItemId")
	if err := requireParam("workItemId", workItemID); err != nil {
		writeError(w, r, err)
		return
	}

	direction, err := service.ParseDirection(query.Get("direction"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	linkTypes, err := parseLinkTypes(query.Get("linkTypes"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.authorizeWorkItem(r.Context(), workItemID); err != nil {
		writeError(w, r, err)
		return
	}

	links, err := h.links.GetLinksForItem(r.Context(), workItemID, direction, linkTypes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, links)
}

// parseLinkTypes parses a comma separated list of link types.
func parseLinkTypes(s string) ([]model.LinkType, error) {
	var types []model.LinkType
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		lt, err := model.ParseLinkType(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
		}
		types = append(types, lt)
	}

	return types, nil
}

func (h *LinkHandler) getLinksForProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if err := requireParam("projectId", projectID); err != nil {
		writeError(w, r, err)
		return
	}

	workspaceID, err := h.links.ProjectWorkspace(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorize(r.Context(), workspaceID); err != nil {
		writeError(w, r, err)
		return
	}

	links, err := h.links.GetLinksForProject(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"links": links})
}

func (h *LinkHandler) getLinkTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.links.LinkTypes())
}

func (h *LinkHandler) getBlockedStatus(w http.ResponseWriter, r *http.Request) {
	workItemID := r.PathValue("workItemId")
	if err := h.authorizeWorkItem(r.Context(), workItemID); err != nil {
		writeError(w, r, err)
		return
	}

	status, err := h.links.GetBlockedStatus(r.Context(), workItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *LinkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.authorizeLink(r.Context(), r.PathValue("linkId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) updateLink(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateLinkRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeError(w, r, err)
		return
	}

	linkID := r.PathValue("linkId")
	if _, err := h.authorizeLink(r.Context(), linkID); err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.links.Update(r.Context(), linkID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	deleteInverse := true
	if v := r.URL.Query().Get("deleteInverse"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid deleteInverse %q", service.ErrInvalidArgument, v))
			return
		}
		deleteInverse = parsed
	}

	linkID := r.PathValue("linkId")
	if _, err := h.authorizeLink(r.Context(), linkID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.links.Delete(r.Context(), linkID, deleteInverse); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": linkID})
}

func (h *LinkHandler) deleteLinksForWorkItem(w http.ResponseWriter, r *http.Request) {
	workItemID := r.PathValue("workItemId")
	if err := h.authorizeWorkItem(r.Context(), workItemID); err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.links.DeleteAllForWorkItem(r.Context(), workItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"workItemId": workItemID, "deleted": deleted})
}

func (h *LinkHandler) workItemStatusChanged(w http.ResponseWriter, r *http.Request) {
	workItemID := r.PathValue("workItemId")
	if err := h.authorizeWorkItem(r.Context(), workItemID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.links.WorkItemStatusChanged(r.Context(), workItemID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"workItemId": workItemID})
}
