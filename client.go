package worklink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/worklink/internal/model"
	"github.com/emrgen/worklink/internal/service"
)

// APIError is an error response of the link API.
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

// Client calls the link API over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL, e.g. http://localhost:4021.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) CreateLink(ctx context.Context, req *service.CreateLinkRequest) (*model.WorkItemLink, error) {
	var link model.WorkItemLink
	if err := c.do(ctx, http.MethodPost, "/v1/work-item-links", nil, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) BulkCreateLinks(ctx context.Context, req *service.BulkCreateRequest) (*service.BulkCreateResponse, error) {
	var res service.BulkCreateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/work-item-links/bulk", nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetLink(ctx context.Context, linkID string) (*model.WorkItemLink, error) {
	var link model.WorkItemLink
	if err := c.do(ctx, http.MethodGet, "/v1/work-item-links/"+url.PathEscape(linkID), nil, nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) UpdateLink(ctx context.Context, linkID string, req *service.UpdateLinkRequest) (*model.WorkItemLink, error) {
	var link model.WorkItemLink
	if err := c.do(ctx, http.MethodPatch, "/v1/work-item-links/"+url.PathEscape(linkID), nil, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) DeleteLink(ctx context.Context, linkID string, deleteInverse bool) error {
	query := url.Values{"deleteInverse": {strconv.FormatBool(deleteInverse)}}
	return c.do(ctx, http.MethodDelete, "/v1/work-item-links/"+url.PathEscape(linkID), query, nil, nil)
}

func (c *Client) GetLinksForItem(ctx context.Context, workItemID string, direction service.Direction, linkTypes []model.LinkType) (*service.ItemLinks, error) {
	query := url.Values{"workItemId": {workItemID}}
	if direction != "" {
		query.Set("direction", string(direction))
	}
	if len(linkTypes) > 0 {
		names := make([]string, len(linkTypes))
		for i, lt := range linkTypes {
			names[i] = lt.String()
		}
		query.Set("linkTypes", strings.Join(names, ","))
	}

	var links service.ItemLinks
	if err := c.do(ctx, http.MethodGet, "/v1/work-item-links", query, nil, &links); err != nil {
		return nil, err
	}
	return &links, nil
}

func (c *Client) GetLinksForProject(ctx context.Context, projectID string) ([]*model.WorkItemLink, error) {
	var res struct {
		Links []*model.WorkItemLink `json:"links"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/work-item-links/project", url.Values{"projectId": {projectID}}, nil, &res); err != nil {
		return nil, err
	}
	return res.Links, nil
}

func (c *Client) GetLinkTypes(ctx context.Context) (map[model.LinkType]model.LinkTypeInfo, error) {
	var types map[model.LinkType]model.LinkTypeInfo
	if err := c.do(ctx, http.MethodGet, "/v1/work-item-links/types", nil, nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (c *Client) GetBlockedStatus(ctx context.Context, workItemID string) (*model.BlockedStatus, error) {
	var status model.BlockedStatus
	if err := c.do(ctx, http.MethodGet, "/v1/work-item-links/blocked-status/"+url.PathEscape(workItemID), nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DeleteLinksForWorkItem removes every link of a work item and returns how many were deleted.
func (c *Client) DeleteLinksForWorkItem(ctx context.Context, workItemID string) (int64, error) {
	var res struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/v1/work-items/"+url.PathEscape(workItemID)+"/links", nil, nil, &res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil {
			apiErr.Message = res.Status
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}
