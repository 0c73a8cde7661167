package hindsightsdk

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

// Client is a minimal Hindsight HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Option is one considered alternative.
type Option struct {
	ID   string   `json:"id,omitempty"`
	Name string   `json:"name"`
	Pros []string `json:"pros,omitempty"`
	Cons []string `json:"cons,omitempty"`
}

// Assumption is a belief the decision rests on.
type Assumption struct {
	ID         string `json:"id,omitempty"`
	Statement  string `json:"statement"`
	WasCorrect *bool  `json:"was_correct,omitempty"`
}

// Review is the one-time verdict on a decision.
type Review struct {
	Outcome      string `json:"outcome"`
	WhatHappened string `json:"what_happened"`
	Lessons      string `json:"lessons,omitempty"`
	ReviewedAt   string `json:"reviewed_at"`
}

// Decision represents the API decision model.
type Decision struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Context        string       `json:"context"`
	Options        []Option     `json:"options"`
	ChosenOptionID string       `json:"chosen_option_id"`
	Reasoning      string       `json:"reasoning,omitempty"`
	Confidence     int          `json:"confidence"`
	Assumptions    []Assumption `json:"assumptions"`
	TargetDate     string       `json:"target_date"`
	Outcome        string       `json:"outcome"`
	Due            bool         `json:"due"`
	Review         *Review      `json:"review,omitempty"`
	CreatedAt      string       `json:"created_at"`
	UpdatedAt      string       `json:"updated_at"`
}

// CreateDecisionRequest is the payload for recording a decision.
type CreateDecisionRequest struct {
	Title          string       `json:"title"`
	Context        string       `json:"context"`
	Options        []Option     `json:"options"`
	ChosenOptionID string       `json:"chosen_option_id,omitempty"`
	Reasoning      string       `json:"reasoning,omitempty"`
	Confidence     int          `json:"confidence"`
	Assumptions    []Assumption `json:"assumptions,omitempty"`
	TargetDate     string       `json:"target_date"`
}

// ReviewRequest closes a decision's review. Outcome, WhatHappened and
// Lessons are all required by the server.
type ReviewRequest struct {
	Outcome      string          `json:"outcome"`
	WhatHappened string          `json:"what_happened"`
	Lessons      string          `json:"lessons"`
	Assumptions  map[string]bool `json:"assumptions,omitempty"`
}

// Stats aggregates a journal.
type Stats struct {
	Total         int            `json:"total"`
	ReviewedCount int            `json:"reviewed_count"`
	SuccessCount  int            `json:"success_count"`
	PartialCount  int            `json:"partial_count"`
	FailureCount  int            `json:"failure_count"`
	FailureRate   float64        `json:"failure_rate"`
	AvgConfidence float64        `json:"avg_confidence"`
	ByOutcome     map[string]int `json:"by_outcome"`
	ByContext     map[string]int `json:"by_context"`
}

// Insight holds LLM analysis of the decision log.
type Insight struct {
	Patterns             []string `json:"patterns"`
	CognitiveBiases      []string `json:"cognitive_biases"`
	SuggestedReflections []string `json:"suggested_reflections"`
}

// User represents an account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedDecisions wraps list responses with cursors.
type PaginatedDecisions struct {
	Items      []Decision `json:"items"`
	NextCursor string     `json:"next_cursor"`
}

// Register creates an account and stores the returned bearer token on the client.
func (c *Client) Register(ctx context.Context, email, name, password string) (TokenResponse, error) {
	body := map[string]any{"email": email, "name": name, "password": password}
	var resp TokenResponse
	err := c.do(ctx, http.MethodPost, "auth/register", body, &resp)
	if err == nil {
		c.BearerToken = resp.Token
	}
	return resp, err
}

// Login authenticates and stores the returned bearer token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	body := map[string]any{"email": email, "password": password}
	var resp TokenResponse
	err := c.do(ctx, http.MethodPost, "auth/login", body, &resp)
	if err == nil {
		c.BearerToken = resp.Token
	}
	return resp, err
}

// CreateDecision records a decision.
func (c *Client) CreateDecision(ctx context.Context, req CreateDecisionRequest) (Decision, error) {
	var resp Decision
	err := c.do(ctx, http.MethodPost, "decisions", req, &resp)
	return resp, err
}

// GetDecision fetches a decision by id.
func (c *Client) GetDecision(ctx context.Context, id string) (Decision, error) {
	var resp Decision
	err := c.do(ctx, http.MethodGet, "decisions/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Decisions returns a page of decisions, newest first.
func (c *Client) Decisions(ctx context.Context, limit int, cursor string) (PaginatedDecisions, error) {
	endpoint := "decisions"
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedDecisions
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Due returns decisions waiting for their review.
func (c *Client) Due(ctx context.Context) ([]Decision, error) {
	var resp []Decision
	err := c.do(ctx, http.MethodGet, "decisions/due", nil, &resp)
	return resp, err
}

// Review closes a decision's review. It succeeds at most once per decision.
func (c *Client) Review(ctx context.Context, id string, req ReviewRequest) (Decision, error) {
	var resp Decision
	err := c.do(ctx, http.MethodPost, "decisions/"+url.PathEscape(id)+"/review", req, &resp)
	return resp, err
}

// DeleteDecision removes a decision.
func (c *Client) DeleteDecision(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "decisions/"+url.PathEscape(id), nil, nil)
}

// Stats returns aggregate statistics for the authenticated account.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp Stats
	err := c.do(ctx, http.MethodGet, "stats", nil, &resp)
	return resp, err
}

// Insights asks the server to analyze decision patterns.
func (c *Client) Insights(ctx context.Context) (Insight, error) {
	var resp Insight
	err := c.do(ctx, http.MethodGet, "insights", nil, &resp)
	return resp, err
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
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// base trims the trailing slash; BaseURL should include the API base path,
// e.g. http://127.0.0.1:8787/api/v1.
func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
