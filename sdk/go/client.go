package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal client portal HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:     baseURL,
		BasePath:    "/v0",
		BearerToken: token,
		Timeout:     10 * time.Second,
	}
}

// Project represents the API project model.
type Project struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	Budget         *float64 `json:"budget,omitempty"`
	StartDate      *string  `json:"start_date,omitempty"`
	EndDate        *string  `json:"end_date,omitempty"`
	EstimatedHours *int     `json:"estimated_hours,omitempty"`
	ActualHours    int      `json:"actual_hours"`
	Progress       int      `json:"progress"`
	Tags           []string `json:"tags"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// Requirement represents a project requirement.
type Requirement struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	CreatedBy   string  `json:"created_by"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Activity represents a project activity entry.
type Activity struct {
	ID         int64          `json:"id"`
	ProjectID  string         `json:"project_id"`
	UpdateType string         `json:"update_type"`
	Message    string         `json:"message"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedBy  string         `json:"created_by"`
	CreatedAt  string         `json:"created_at"`
}

type ProjectStats struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	Completed  int            `json:"completed"`
	OnHold     int            `json:"on_hold"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

type RequirementStats struct {
	Total         int            `json:"total"`
	Pending       int            `json:"pending"`
	Approved      int            `json:"approved"`
	InDevelopment int            `json:"in_development"`
	Completed     int            `json:"completed"`
	HighPriority  int            `json:"high_priority"`
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
}

// ProjectQuery narrows ListProjects.
type ProjectQuery struct {
	Status   string
	Priority string
	Search   string
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) ([]Project, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Priority != "" {
		params.Set("priority", q.Priority)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	endpoint := "projects"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var resp struct {
		Items []Project `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// CreateProject creates a project owned by the caller. fields may carry
// any optional project attribute (description, status, budget, ...).
func (c *Client) CreateProject(ctx context.Context, title string, fields map[string]any) (Project, error) {
	body := map[string]any{}
	for k, v := range fields {
		body[k] = v
	}
	body["title"] = title
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", body, &resp)
	return resp, err
}

func (c *Client) GetProject(ctx context.Context, id string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, "projects/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// UpdateProject applies a partial update; keys absent from patch are untouched.
func (c *Client) UpdateProject(ctx context.Context, id string, patch map[string]any) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPatch, "projects/"+url.PathEscape(id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "projects/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ProjectStats(ctx context.Context) (ProjectStats, error) {
	var resp ProjectStats
	err := c.do(ctx, http.MethodGet, "projects/stats", nil, &resp)
	return resp, err
}

func (c *Client) ListRequirements(ctx context.Context, projectID string) ([]Requirement, error) {
	var resp struct {
		Items []Requirement `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%s/requirements", url.PathEscape(projectID)), nil, &resp)
	return resp.Items, err
}

func (c *Client) CreateRequirement(ctx context.Context, projectID, title, priority string) (Requirement, error) {
	body := map[string]any{"title": title}
	if priority != "" {
		body["priority"] = priority
	}
	var resp Requirement
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("projects/%s/requirements", url.PathEscape(projectID)), body, &resp)
	return resp, err
}

func (c *Client) GetRequirement(ctx context.Context, id string) (Requirement, error) {
	var resp Requirement
	err := c.do(ctx, http.MethodGet, "requirements/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) UpdateRequirement(ctx context.Context, id string, patch map[string]any) (Requirement, error) {
	var resp Requirement
	err := c.do(ctx, http.MethodPatch, "requirements/"+url.PathEscape(id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteRequirement(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "requirements/"+url.PathEscape(id), nil, nil)
}

func (c *Client) RequirementStats(ctx context.Context, projectID string) (RequirementStats, error) {
	var resp RequirementStats
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%s/requirements/stats", url.PathEscape(projectID)), nil, &resp)
	return resp, err
}

// Activity returns a project's activity, newest first. updateType may be empty.
func (c *Client) Activity(ctx context.Context, projectID, updateType string, limit int) ([]Activity, error) {
	params := url.Values{}
	if updateType != "" {
		params.Set("type", updateType)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := fmt.Sprintf("projects/%s/activity", url.PathEscape(projectID))
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var resp struct {
		Items []Activity `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
