// Package teamclient talks to the allocation REST API. It implements the
// remote side of the membership store and the project lookup used by the
// transfer coordinator.
package teamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/team-allocation-api/internal/allocation"
	"github.com/yukikurage/team-allocation-api/internal/constants"
	"github.com/yukikurage/team-allocation-api/internal/dto"
	apierrors "github.com/yukikurage/team-allocation-api/internal/errors"
	"github.com/yukikurage/team-allocation-api/internal/membership"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

var ErrProjectNotFound = errors.New("project not found")

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProjectMembers returns the active roster of a project.
func (c *Client) ListProjectMembers(ctx context.Context, projectID uint64) ([]membership.Membership, error) {
	var body dto.TeamMemberListDTO
	path := fmt.Sprintf("/project-team-members/project/%d", projectID)
	if err := c.do(ctx, "list members", http.MethodGet, path, nil, &body); err != nil {
		return nil, projectError(err)
	}
	if body.Members == nil {
		body.Members = []membership.Membership{}
	}
	return body.Members, nil
}

// AddToProject submits a new membership.
func (c *Client) AddToProject(ctx context.Context, req membership.AddRequest) (*membership.Membership, error) {
	payload := dto.AddTeamMemberRequest{
		ProjectID:            req.ProjectID,
		UserID:               req.UserID,
		Role:                 req.Role,
		IsTeamLead:           req.IsTeamLead,
		AllocationPercentage: &req.AllocationPercentage,
	}
	var out membership.Membership
	if err := c.do(ctx, "add member", http.MethodPost, "/project-team-members/add-to-project", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMember changes an existing membership.
func (c *Client) UpdateMember(ctx context.Context, req membership.UpdateRequest) (*membership.Membership, error) {
	payload := dto.UpdateTeamMemberRequest{
		Role:                 req.Role,
		IsTeamLead:           req.IsTeamLead,
		AllocationPercentage: req.AllocationPercentage,
	}
	var out membership.Membership
	path := fmt.Sprintf("/project-team-members/project/%d/user/%d", req.ProjectID, req.UserID)
	if err := c.do(ctx, "update member", http.MethodPatch, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromProject deactivates a membership. The backend answers 200 for a
// user who is not a member, so a 404 here always means the project is gone
// or the request never reached the API.
func (c *Client) RemoveFromProject(ctx context.Context, projectID, userID uint64) error {
	var out struct {
		Removed bool `json:"removed"`
	}
	path := fmt.Sprintf("/project-team-members/project/%d/user/%d", projectID, userID)
	if err := c.do(ctx, "remove member", http.MethodDelete, path, nil, &out); err != nil {
		return projectError(err)
	}
	if !out.Removed {
		c.log.Debug("remove found no active membership", zap.Uint64("project_id", projectID), zap.Uint64("user_id", userID))
	}
	return nil
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, projectID uint64) (*dto.ProjectDTO, error) {
	var out dto.ProjectDTO
	if err := c.do(ctx, "get project", http.MethodGet, fmt.Sprintf("/projects/%d", projectID), nil, &out); err != nil {
		return nil, projectError(err)
	}
	return &out, nil
}

// ProjectName resolves a project's display name.
func (c *Client) ProjectName(ctx context.Context, projectID uint64) (string, error) {
	p, err := c.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// ListProjects fetches every project.
func (c *Client) ListProjects(ctx context.Context) ([]dto.ProjectDTO, error) {
	var body struct {
		Projects []dto.ProjectDTO `json:"projects"`
	}
	if err := c.do(ctx, "list projects", http.MethodGet, "/projects", nil, &body); err != nil {
		return nil, err
	}
	return body.Projects, nil
}

// ListUsers fetches every user, following pagination.
func (c *Client) ListUsers(ctx context.Context) ([]dto.UserDTO, error) {
	var users []dto.UserDTO
	for page := 1; ; page++ {
		var body dto.UserListDTO
		path := fmt.Sprintf("/users?page=%d&limit=%d", page, constants.MaxPageSize)
		if err := c.do(ctx, "list users", http.MethodGet, path, nil, &body); err != nil {
			return nil, err
		}
		users = append(users, body.Users...)
		if len(body.Users) == 0 || int64(len(users)) >= body.Pagination.Total {
			return users, nil
		}
	}
}

// Overview asks the server for the allocation overview under filter.
func (c *Client) Overview(ctx context.Context, filter allocation.Filter) (allocation.Overview, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.DepartmentID != 0 {
		q.Set("department_id", strconv.FormatUint(filter.DepartmentID, 10))
	}
	if filter.DomainID != 0 {
		q.Set("domain_id", strconv.FormatUint(filter.DomainID, 10))
	}
	if filter.Role != "" {
		q.Set("role", filter.Role)
	}
	path := "/allocations/overview"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out allocation.Overview
	if err := c.do(ctx, "overview", http.MethodGet, path, nil, &out); err != nil {
		return allocation.Overview{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &membership.TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(constants.HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("api request failed", zap.String("op", op), zap.String("request_id", requestID), zap.Error(err))
		return &membership.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &membership.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.log.Debug("api request",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return classify(op, resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &membership.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classify turns an error response into the membership error taxonomy.
func classify(op string, status int, raw []byte) error {
	var apiErr apierrors.APIError
	enveloped := json.Unmarshal(raw, &apiErr) == nil && apiErr.Code != ""
	message := apiErr.Message
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	switch status {
	case http.StatusConflict:
		if apiErr.Code == apierrors.ErrCodeTeamAtCapacity || apiErr.Code == apierrors.ErrCodeManagerLimitReached {
			return fmt.Errorf("%w: %s", membership.ErrCapacityExceeded, message)
		}
		if apiErr.Code == apierrors.ErrCodeAlreadyExists || looksDuplicate(message) {
			return fmt.Errorf("%w: %s", membership.ErrDuplicateMembership, message)
		}
	case http.StatusNotFound:
		// a bare 404 comes from a proxy or a wrong base URL, not the API
		if enveloped && apiErr.Code == apierrors.ErrCodeNotFound {
			return fmt.Errorf("%w: %s", membership.ErrMemberNotFound, message)
		}
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", membership.ErrInvalidRequest, message)
	}
	return &membership.TransportError{Op: op, StatusCode: status, Err: errors.New(message)}
}

func looksDuplicate(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "already") || strings.Contains(m, "duplicate") || strings.Contains(m, "unique")
}

// projectError reports a 404 on a project-scoped read as a missing project.
func projectError(err error) error {
	if errors.Is(err, membership.ErrMemberNotFound) {
		return fmt.Errorf("%w: %v", ErrProjectNotFound, err)
	}
	return err
}
