package connectors

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/brand-studio/internal/models"
)

const githubAPIBase = "https://api.github.com"

// GitHubConnector publishes markdown content as a commit to a target
// repository via the contents API.
type GitHubConnector struct {
	client *http.Client
	// baseURL is overridable for tests.
	baseURL string
}

// NewGitHubConnector creates a GitHub connector.
func NewGitHubConnector(timeout time.Duration) *GitHubConnector {
	return &GitHubConnector{
		client:  &http.Client{Timeout: timeout},
		baseURL: githubAPIBase,
	}
}

// Publish commits the content to req.Target (owner/repo) at req.Path on
// the repository's default branch, updating the file when it already
// exists.
func (g *GitHubConnector) Publish(ctx context.Context, req PublishRequest) (*Result, error) {
	token := req.Profile.AuthSecret
	if token == "" {
		return nil, errors.New("github publish: profile has no token")
	}
	repo := req.Target
	if repo == "" {
		return nil, errors.New("github publish: no target repository resolved")
	}
	path := req.Path
	if path == "" {
		path = "content/brand-studio/" + slugify(req.Title) + ".md"
	}

	branch, err := g.defaultBranch(ctx, token, repo)
	if err != nil {
		return nil, err
	}

	contentURL := fmt.Sprintf("%s/repos/%s/contents/%s", g.baseURL, repo, path)

	// Updating an existing file requires its current blob sha.
	existingSHA := ""
	var existing struct {
		SHA string `json:"sha"`
	}
	if err := g.request(ctx, http.MethodGet, contentURL+"?ref="+branch, token, nil, &existing); err == nil {
		existingSHA = existing.SHA
	}

	payload := map[string]any{
		"message": "brand-studio: " + req.Title,
		"content": base64.StdEncoding.EncodeToString([]byte(req.Content)),
		"branch":  branch,
	}
	if existingSHA != "" {
		payload["sha"] = existingSHA
	}

	var published struct {
		Commit struct {
			SHA     string `json:"sha"`
			HTMLURL string `json:"html_url"`
		} `json:"commit"`
		Content struct {
			HTMLURL string `json:"html_url"`
		} `json:"content"`
	}
	if err := g.request(ctx, http.MethodPut, contentURL, token, payload, &published); err != nil {
		return nil, fmt.Errorf("github publish: %w", err)
	}

	externalID := published.Commit.SHA
	if externalID == "" {
		externalID = "commit"
	}
	url := published.Commit.HTMLURL
	if url == "" {
		url = published.Content.HTMLURL
	}
	return &Result{
		ExternalID: externalID,
		URL:        url,
		Message:    "Published via commit",
	}, nil
}

// CheckCredentials verifies the token can read the target repository.
func (g *GitHubConnector) CheckCredentials(ctx context.Context, profile models.CredentialProfile) error {
	if profile.AuthSecret == "" {
		return errors.New("github check: token missing")
	}
	if profile.Target == "" {
		return errors.New("github check: target repository missing")
	}
	url := fmt.Sprintf("%s/repos/%s", g.baseURL, profile.Target)
	return g.request(ctx, http.MethodGet, url, profile.AuthSecret, nil, &struct{}{})
}

func (g *GitHubConnector) defaultBranch(ctx context.Context, token, repo string) (string, error) {
	var repoInfo struct {
		DefaultBranch string `json:"default_branch"`
	}
	url := fmt.Sprintf("%s/repos/%s", g.baseURL, repo)
	if err := g.request(ctx, http.MethodGet, url, token, nil, &repoInfo); err != nil {
		return "", fmt.Errorf("github resolve branch: %w", err)
	}
	if repoInfo.DefaultBranch == "" {
		return "main", nil
	}
	return repoInfo.DefaultBranch, nil
}

func (g *GitHubConnector) request(ctx context.Context, method, url, token string, payload, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "brand-studio/1.0")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 48 {
		slug = slug[:48]
	}
	if slug == "" {
		slug = "post"
	}
	return slug
}
