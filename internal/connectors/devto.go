package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jonesrussell/brand-studio/internal/models"
)

const devtoAPIBase = "https://dev.to/api"

var devtoTargetPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(?:/[A-Za-z0-9_-]+)*$`)

// DevtoConnector publishes markdown articles through the Dev.to API.
type DevtoConnector struct {
	client  *http.Client
	baseURL string
	tags    []string
}

// NewDevtoConnector creates a Dev.to connector. Tags are applied to
// every published article (Dev.to caps them at four).
func NewDevtoConnector(timeout time.Duration, tags []string) *DevtoConnector {
	if len(tags) == 0 {
		tags = []string{"ai", "engineering"}
	}
	if len(tags) > 4 {
		tags = tags[:4]
	}
	return &DevtoConnector{
		client:  &http.Client{Timeout: timeout},
		baseURL: devtoAPIBase,
		tags:    tags,
	}
}

// Publish creates a published Dev.to article from the variant content.
func (d *DevtoConnector) Publish(ctx context.Context, req PublishRequest) (*Result, error) {
	apiKey := req.Profile.AuthSecret
	if apiKey == "" {
		return nil, errors.New("devto publish: profile has no api key")
	}

	article := map[string]any{
		"title":         req.Title,
		"body_markdown": req.Content,
		"published":     true,
		"tags":          d.tags,
	}
	if target := normalizeDevtoTarget(req.Target); target != "" {
		article["canonical_url"] = "https://dev.to/" + target
	}

	var response struct {
		ID  json.Number `json:"id"`
		URL string      `json:"url"`
	}
	err := d.request(ctx, http.MethodPost, d.baseURL+"/articles", apiKey, map[string]any{"article": article}, &response)
	if err != nil {
		return nil, fmt.Errorf("devto publish: %w", err)
	}

	externalID := response.ID.String()
	if externalID == "" {
		externalID = "devto"
	}
	return &Result{
		ExternalID: "devto-" + externalID,
		URL:        response.URL,
		Message:    "Published to Dev.to",
	}, nil
}

// CheckCredentials verifies the api key against the authenticated
// articles endpoint.
func (d *DevtoConnector) CheckCredentials(ctx context.Context, profile models.CredentialProfile) error {
	if profile.AuthSecret == "" {
		return errors.New("devto check: api key missing")
	}
	url := d.baseURL + "/articles/me/all?per_page=1"
	return d.request(ctx, http.MethodGet, url, profile.AuthSecret, nil, &json.RawMessage{})
}

func (d *DevtoConnector) request(ctx context.Context, method, url, apiKey string, payload, out any) error {
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
	req.Header.Set("api-key", apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "brand-studio/1.0")
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("devto api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// normalizeDevtoTarget allows only safe dev.to username/path slugs.
func normalizeDevtoTarget(target string) string {
	value := strings.Trim(strings.TrimSpace(target), "/")
	if value == "" || !devtoTargetPattern.MatchString(value) {
		return ""
	}
	return value
}
