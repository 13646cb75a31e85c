// Package api is the HTTP client for the issue backend: listing issues,
// fetching one issue, and triggering the scope-and-execute batch run.
package api

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

	"github.com/newhook/issuerun/internal/logging"
)

const (
	// DefaultBaseURL is used when neither config nor environment set one.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// BaseURLEnv overrides the configured backend address.
	BaseURLEnv = "ISSUERUN_API_BASE"
)

// Client talks to the backend. It holds no per-run state and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
// The underlying http.Client has no timeout: runs can take many minutes
// and only the caller's context bounds them.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// SetHTTPClient replaces the transport (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// BaseURL returns the backend address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListIssues returns the repository's issues in server order.
func (c *Client) ListIssues(ctx context.Context, repo string) (*IssueList, error) {
	repo, err := ValidateRepo(repo)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, repoPath(repo, "issues"), nil)
	if err != nil {
		return nil, err
	}

	var list IssueList
	if err := decodeBody(body, &list); err != nil {
		return nil, err
	}
	logging.Debug("listed issues", "repo", repo, "count", len(list.Issues))
	return &list, nil
}

// GetIssue returns a single issue including its body.
func (c *Client) GetIssue(ctx context.Context, repo string, number int) (*IssueDetail, error) {
	repo, err := ValidateRepo(repo)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, repoPath(repo, "issues", strconv.Itoa(number)), nil)
	if err != nil {
		return nil, err
	}

	var issue IssueDetail
	if err := decodeBody(body, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ScopeAndExecuteBatch runs scope-and-execute for the requested issues in a
// single call. A success response without a results array is a ParseError.
func (c *Client) ScopeAndExecuteBatch(ctx context.Context, repo string, req BatchRequest) (*BatchRunResult, error) {
	repo, err := ValidateRepo(repo)
	if err != nil {
		return nil, err
	}
	if req.Issues == nil {
		req.Issues = []int{}
	}

	logging.Info("starting batch run", "repo", repo, "all", req.All, "issues", req.Issues)

	body, err := c.do(ctx, http.MethodPost, repoPath(repo, "issues", "scope-and-execute-batch"), req)
	if err != nil {
		logging.Warn("batch run failed", "repo", repo, "error", err)
		return nil, err
	}

	var wire struct {
		BatchRunResult
		Results *[]ExecutionResult `json:"results"`
	}
	if err := decodeBody(body, &wire); err != nil {
		return nil, err
	}
	if wire.Results == nil {
		return nil, &ParseError{
			Message: "malformed batch response: missing results",
			Body:    string(body),
		}
	}

	result := wire.BatchRunResult
	result.Results = *wire.Results
	logging.Info("batch run settled", "repo", repo,
		"results", len(result.Results), "succeeded", result.Succeeded, "failed", result.Failed)
	return &result, nil
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("sending request", "method", method, "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: fullURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeServerError(resp.StatusCode, body)
	}
	return body, nil
}

// decodeServerError prefers the body's detail, then message, then the raw
// body when it is not JSON, then the bare status.
func decodeServerError(status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return &ServerError{StatusCode: status, Message: statusMessage(status)}
	}

	var wrapper struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return &ServerError{StatusCode: status, Message: text}
	}
	if detail := detailText(wrapper.Detail); detail != "" {
		return &ServerError{StatusCode: status, Message: detail}
	}
	if wrapper.Message != "" {
		return &ServerError{StatusCode: status, Message: wrapper.Message}
	}
	return &ServerError{StatusCode: status, Message: statusMessage(status)}
}

// detailText renders a detail that may be a string or structured JSON
// (validation errors come back as a list).
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func decodeBody(body []byte, out any) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return &ParseError{Message: "empty response body"}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Message: text, Body: string(body), Err: err}
	}
	return nil
}

func repoPath(repo string, parts ...string) string {
	segments := append([]string{url.PathEscape(repo)}, parts...)
	return strings.Join(segments, "/")
}
