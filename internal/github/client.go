// Package github is a minimal client for the two GitHub REST operations this
// service performs on a user's behalf: generating a repository from a
// template, and reading/writing a single file through the contents API.
//
// WHY NOT A FULL GITHUB SDK?
// Every failure in the provisioning pipeline must surface the upstream status
// code and raw response body to the caller (the details field of the error
// response). SDK wrappers swallow exactly that. The requests here are three
// fixed endpoints with small JSON bodies, so a plain *http.Client keeps the
// diagnostics intact.
//
// Upstream JSON is treated as untyped at the boundary: responses are decoded
// field-by-field into the small structs below, and the raw body only escapes
// this package inside an error's details.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Pallava-Joshi/auto-committer/internal/apperror"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultUserAgent  = "Git-Auto-Committer"

	acceptHeader     = "application/vnd.github+json"
	apiVersionHeader = "2022-11-28"

	// maxErrorBody caps how much of an upstream error response is retained
	// for diagnostics.
	maxErrorBody = 64 << 10
)

// Config holds the client settings. The zero value is usable: base URL and
// user agent default to the real GitHub API. Tests point APIBaseURL at an
// httptest server.
type Config struct {
	APIBaseURL string
	UserAgent  string
	HTTPClient *http.Client
}

// Client performs authenticated GitHub REST calls. It holds no token itself;
// each method takes the acting user's bearer token, because every call is
// made on behalf of whichever stored credential the request resolved to.
type Client struct {
	api       string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a Client, filling config defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		api:       cfg.APIBaseURL,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
		logger:    logger,
	}
}

// Repository is the identifying metadata of a created repository: the path
// pieces needed to address subsequent file operations, plus the browsable URL.
type Repository struct {
	Owner string
	Name  string
	URL   string
}

// FileState is the remote state of a file as reported by the contents API.
// SHA is only meaningful when Exists is true; it is the version token a
// subsequent write must present to safely overwrite the file.
type FileState struct {
	Exists bool
	SHA    string
}

// FileWrite is the payload for a contents-API write. SHA empty means "create
// the file"; SHA set means "replace the file, but only if it still has this
// content hash". Supplying a SHA for an absent file (or omitting it for an
// existing one) is rejected by GitHub; callers derive SHA from GetFile.
type FileWrite struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64-encoded file body
	SHA     string `json:"sha,omitempty"`
}

// GenerateFromTemplate creates a new repository for owner from the given
// template repository. Non-private, default branch only, matching the
// template-generation call of the original service.
//
// There is no rollback path: if this call fails nothing was durably created,
// and if a later step fails the repository intentionally remains.
func (c *Client) GenerateFromTemplate(ctx context.Context, token, templateOwner, templateRepo, owner, name string) (*Repository, error) {
	body := map[string]any{
		"owner":                owner,
		"name":                 name,
		"description":          "Auto-generated repo for GitHub Auto Commit",
		"private":              false,
		"include_all_branches": false,
	}

	url := fmt.Sprintf("%s/repos/%s/%s/generate", c.api, templateOwner, templateRepo)
	resp, raw, err := c.do(ctx, http.MethodPost, url, token, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("template generation rejected",
			slog.String("repo", name),
			slog.Int("status", resp.StatusCode),
		)
		return nil, apperror.Upstream("Failed to create repository from template", resp.StatusCode, raw)
	}

	// Validate the fields we rely on; everything else in the payload is ignored.
	var created struct {
		Name    string `json:"name"`
		HTMLURL string `json:"html_url"`
		Owner   struct {
			Login string `json:"login"`
		} `json:"owner"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("github: decoding generate response: %w", err)
	}

	repo := &Repository{Owner: owner, Name: name, URL: created.HTMLURL}
	if repo.URL == "" {
		repo.URL = fmt.Sprintf("https://github.com/%s/%s", owner, name)
	}
	return repo, nil
}

// GetFile looks up the current state of path in owner/repo.
//
// A 404 is not an error here: it means the file does not exist yet, which
// the caller turns into a create-instead-of-update write. Any other
// non-success response is a real lookup failure.
func (c *Client) GetFile(ctx context.Context, token, owner, repo, path string) (FileState, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.api, owner, repo, path)
	resp, raw, err := c.do(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return FileState{}, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return FileState{Exists: false}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FileState{}, apperror.Upstream("Failed to check existing workflow file", resp.StatusCode, raw)
	}

	var file struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return FileState{}, fmt.Errorf("github: decoding contents response: %w", err)
	}
	if file.SHA == "" {
		return FileState{}, fmt.Errorf("github: contents response for %s has no sha", path)
	}

	return FileState{Exists: true, SHA: file.SHA}, nil
}

// PutFile writes path in owner/repo. The conditional-update semantics live
// entirely in write.SHA; see FileWrite.
func (c *Client) PutFile(ctx context.Context, token, owner, repo, path string, write FileWrite) error {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.api, owner, repo, path)
	resp, raw, err := c.do(ctx, http.MethodPut, url, token, write)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("workflow file write rejected",
			slog.String("repo", repo),
			slog.Int("status", resp.StatusCode),
		)
		return apperror.Upstream("Failed to update workflow file", resp.StatusCode, raw)
	}
	return nil
}

// do issues one authenticated request and returns the response plus its fully
// read body. Transport-level failures (DNS, timeouts) are wrapped as plain
// errors; HTTP-level failures are left to the caller, which knows which
// statuses are expected (404 on the contents lookup is a valid state).
func (c *Client) do(ctx context.Context, method, url, token string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("github: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("github: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, nil, fmt.Errorf("github: reading response body: %w", err)
	}

	return resp, raw, nil
}
