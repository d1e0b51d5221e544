package remote

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

// DefaultURL is the default backend endpoint
const DefaultURL = "https://voxel.tools"

// APIError is a non-2xx backend response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the studio backend
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a backend client. An empty url uses DefaultURL.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// BaseURL returns the backend endpoint in use
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsAvailable checks if the backend is reachable
func IsAvailable(url string) bool {
	if url == "" {
		url = DefaultURL
	}

	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(strings.TrimRight(url, "/") + "/api/session")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}

// Session returns the authentication state of the current token
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/session", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return &out, nil
}

// Logout ends the backend session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/session/logout", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// ListRepositories returns every repository the user can push to
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	var out []Repository
	if err := c.doJSON(ctx, http.MethodGet, "/api/repos/all", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return out, nil
}

// InitRepository creates a repository
func (c *Client) InitRepository(ctx context.Context, req InitRequest) (*Repository, error) {
	var out Repository
	if err := c.doJSON(ctx, http.MethodPost, "/api/init", nil, req, &out); err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	return &out, nil
}

// Push commits files to a branch
func (c *Client) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	var out PushResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/push", nil, req, &out); err != nil {
		return nil, fmt.Errorf("failed to push: %w", err)
	}
	return &out, nil
}

// CreatePullRequest commits files to a new branch and opens a pull request
func (c *Client) CreatePullRequest(ctx context.Context, req PullRequestRequest) (*PullRequest, error) {
	var out PullRequest
	if err := c.doJSON(ctx, http.MethodPost, "/api/push/pr", nil, req, &out); err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return &out, nil
}

// Download fetches a repository branch as a zip archive
func (c *Client) Download(ctx context.Context, owner, repo, branch string) ([]byte, error) {
	query := url.Values{"owner": {owner}, "repo": {repo}}
	if branch != "" {
		query.Set("branch", branch)
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/download", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s/%s: %w", owner, repo, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return data, nil
}

// StartAuth begins the GitHub OAuth flow
func (c *Client) StartAuth(ctx context.Context) (*AuthStart, error) {
	var out AuthStart
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/github", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to start authentication: %w", err)
	}
	return &out, nil
}

// ExchangeCode trades an OAuth code for an access token
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*AuthResult, error) {
	req := map[string]string{"code": code, "state": state}
	var out AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/github/callback", nil, req, &out); err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends a request and returns the response for 2xx statuses
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, readError(resp)
}

func readError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}
