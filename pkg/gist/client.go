// Package gist is a client for the GitHub gists REST API, scoped to a
// single gist. Each client is constructed per request from the resolved
// credentials and is never shared.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "gistrelay"
	apiVersion     = "2022-11-28"
)

// ClientConfig contains everything needed to construct a Client.
type ClientConfig struct {
	// BaseURL is the GitHub API base URL. Defaults to the public API.
	BaseURL string

	// GithubToken authenticates requests to the gists API.
	GithubToken string

	// GistID is the gist every operation targets.
	GistID string

	// Timeout for upstream requests. Default: 30 seconds.
	Timeout time.Duration

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client

	Logger hclog.Logger
}

// Client performs operations against one gist.
type Client struct {
	baseURL string
	token   string
	gistID  string
	client  *http.Client
	log     hclog.Logger
}

// NewClient creates a gist client. The zero values of BaseURL, Timeout and
// Logger are replaced with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.GithubToken,
		gistID:  cfg.GistID,
		client:  httpClient,
		log:     cfg.Logger,
	}
}

// GetGist fetches the full gist along with the quota headers from the
// upstream response.
func (c *Client) GetGist(ctx context.Context) (*Gist, RateLimit, error) {
	resp, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, c.classifyError(resp)
	}

	var g Gist
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, nil, fmt.Errorf("decoding gist response: %w", err)
	}

	return &g, ExtractRateLimit(resp.Header), nil
}

// GetFile returns the content of one named file in the gist. Large files
// are truncated by GitHub; for those the raw content URL is fetched to
// obtain the full content.
func (c *Client) GetFile(ctx context.Context, filename string) (string, RateLimit, error) {
	g, rl, err := c.GetGist(ctx)
	if err != nil {
		return "", nil, err
	}

	file, ok := g.Files[filename]
	if !ok {
		return "", nil, ErrFileNotFound
	}

	if file.Truncated && file.RawURL != "" {
		content, err := c.fetchRaw(ctx, file.RawURL)
		if err != nil {
			c.log.Error("raw content fetch failed",
				"gist_id", c.gistID,
				"filename", filename,
				"error", err,
			)
			return "", nil, ErrContentFetchFailed
		}
		return content, rl, nil
	}

	return file.Content, rl, nil
}

// UpdateFile sets the content of a named file. GitHub treats the patch as
// update-or-create, so no existence pre-check is made.
func (c *Client) UpdateFile(ctx context.Context, filename, content string) error {
	return c.patchFiles(ctx, map[string]*filePatch{
		filename: {Content: content},
	})
}

// CreateFile adds a new file to the gist, failing if the name is taken.
// The existence check and the write are separate upstream calls; a
// concurrent writer can still win the race, in which case GitHub is the
// source of truth.
func (c *Client) CreateFile(ctx context.Context, filename, content string) error {
	g, _, err := c.GetGist(ctx)
	if err != nil {
		return err
	}
	if _, ok := g.Files[filename]; ok {
		return ErrFileAlreadyExists
	}

	return c.patchFiles(ctx, map[string]*filePatch{
		filename: {Content: content},
	})
}

// DeleteFile removes a named file from the gist.
func (c *Client) DeleteFile(ctx context.Context, filename string) error {
	g, _, err := c.GetGist(ctx)
	if err != nil {
		return err
	}
	if _, ok := g.Files[filename]; !ok {
		return ErrFileNotFound
	}

	// A null entry in the files map deletes the file upstream.
	return c.patchFiles(ctx, map[string]*filePatch{
		filename: nil,
	})
}

type filePatch struct {
	Content string `json:"content"`
}

func (c *Client) patchFiles(ctx context.Context, files map[string]*filePatch) error {
	body, err := json.Marshal(map[string]any{"files": files})
	if err != nil {
		return fmt.Errorf("marshaling gist patch: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPatch, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classifyError(resp)
	}

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method string, body []byte) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/gists/%s", c.baseURL, c.gistID)

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gist request failed: %w", err)
	}
	return resp, nil
}

// fetchRaw retrieves full content from a raw content URL. Raw URLs are
// pre-authorized by GitHub, so no Authorization header is sent.
func (c *Client) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating raw content request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("raw content request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("raw content returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading raw content: %w", err)
	}
	return string(content), nil
}

// githubError is the structured error body returned by the GitHub API.
type githubError struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}

// classifyError maps a non-success upstream response to the error
// taxonomy. The detailed upstream message is logged and replaced with a
// generic message so upstream detail never leaks to callers.
func (c *Client) classifyError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var ghErr githubError
	if err := json.Unmarshal(body, &ghErr); err != nil || ghErr.Message == "" {
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			message:    fmt.Sprintf("GitHub API error: %d", resp.StatusCode),
		}
	}

	c.log.Error("GitHub API error",
		"gist_id", c.gistID,
		"status", resp.StatusCode,
		"message", ghErr.Message,
		"documentation_url", ghErr.DocumentationURL,
	)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrGistNotFound
	case http.StatusUnauthorized:
		return ErrUpstreamAuth
	case http.StatusForbidden:
		return ErrRateLimited
	default:
		return &UpstreamError{StatusCode: resp.StatusCode, message: "GitHub API error"}
	}
}
