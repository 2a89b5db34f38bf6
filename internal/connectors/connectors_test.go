package connectors

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/brand-studio/internal/models"
)

func TestRegistryFallsBackToStub(t *testing.T) {
	registry := NewRegistry(NewStubConnector())
	registry.Register(models.ChannelGitHub, NewGitHubConnector(time.Second))

	_, ok := registry.Lookup(models.ChannelGitHub)
	assert.True(t, ok)
	_, ok = registry.Lookup(models.ChannelX)
	assert.False(t, ok)

	c := registry.For(models.ChannelX)
	result, err := c.Publish(context.Background(), PublishRequest{Reference: "item-1"})
	require.NoError(t, err)
	assert.Equal(t, "ext-item-1", result.ExternalID)
	assert.Equal(t, "https://example.org/published/item-1", result.URL)
}

func TestGitHubPublishCreatesFile(t *testing.T) {
	var putPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/site":
			_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": "trunk"})
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/site/contents/posts/hello.md":
			http.Error(w, "not found", http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/repos/acme/site/contents/posts/hello.md":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putPayload))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]string{
					"sha":      "abc123",
					"html_url": "https://github.test/commit/abc123",
				},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	g := NewGitHubConnector(time.Second)
	g.baseURL = server.URL

	result, err := g.Publish(context.Background(), PublishRequest{
		Reference: "item-1",
		Title:     "Hello",
		Content:   "# Hello\n",
		Target:    "acme/site",
		Path:      "posts/hello.md",
		Profile:   models.CredentialProfile{AuthSecret: "gh-token"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.ExternalID)
	assert.Equal(t, "https://github.test/commit/abc123", result.URL)

	require.NotNil(t, putPayload)
	assert.Equal(t, "trunk", putPayload["branch"])
	assert.NotContains(t, putPayload, "sha")
	decoded, err := base64.StdEncoding.DecodeString(putPayload["content"].(string))
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", string(decoded))
}

func TestGitHubPublishUpdatesExistingFile(t *testing.T) {
	var putPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/site":
			_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": "main"})
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/site/contents/posts/hello.md":
			_ = json.NewEncoder(w).Encode(map[string]string{"sha": "old-sha"})
		case r.Method == http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putPayload))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]string{"sha": "def456"},
			})
		}
	}))
	defer server.Close()

	g := NewGitHubConnector(time.Second)
	g.baseURL = server.URL

	result, err := g.Publish(context.Background(), PublishRequest{
		Title:   "Hello",
		Content: "updated",
		Target:  "acme/site",
		Path:    "posts/hello.md",
		Profile: models.CredentialProfile{AuthSecret: "gh-token"},
	})
	require.NoError(t, err)
	assert.Equal(t, "def456", result.ExternalID)
	assert.Equal(t, "old-sha", putPayload["sha"])
}

func TestGitHubPublishRequiresTokenAndTarget(t *testing.T) {
	g := NewGitHubConnector(time.Second)

	_, err := g.Publish(context.Background(), PublishRequest{Target: "acme/site"})
	assert.Error(t, err)

	_, err = g.Publish(context.Background(), PublishRequest{
		Profile: models.CredentialProfile{AuthSecret: "gh-token"},
	})
	assert.Error(t, err)
}

func TestGitHubCheckCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"full_name": "acme/site"})
	}))
	defer server.Close()

	g := NewGitHubConnector(time.Second)
	g.baseURL = server.URL

	profile := models.CredentialProfile{AuthSecret: "good-token", Target: "acme/site"}
	assert.NoError(t, g.CheckCredentials(context.Background(), profile))

	profile.AuthSecret = "bad-token"
	assert.Error(t, g.CheckCredentials(context.Background(), profile))

	profile.Target = ""
	assert.Error(t, g.CheckCredentials(context.Background(), profile))
}

func TestDevtoPublish(t *testing.T) {
	var article map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "devto-key", r.Header.Get("api-key"))
		require.Equal(t, "/articles", r.URL.Path)

		var payload map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		article = payload["article"]

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":  12345,
			"url": "https://dev.to/acme/hello-1a2b",
		})
	}))
	defer server.Close()

	d := NewDevtoConnector(time.Second, []string{"golang", "devops"})
	d.baseURL = server.URL

	result, err := d.Publish(context.Background(), PublishRequest{
		Title:   "Hello",
		Content: "body",
		Target:  "acme",
		Profile: models.CredentialProfile{AuthSecret: "devto-key"},
	})
	require.NoError(t, err)
	assert.Equal(t, "devto-12345", result.ExternalID)
	assert.Equal(t, "https://dev.to/acme/hello-1a2b", result.URL)

	require.NotNil(t, article)
	assert.Equal(t, "Hello", article["title"])
	assert.Equal(t, "body", article["body_markdown"])
	assert.Equal(t, true, article["published"])
	assert.Equal(t, "https://dev.to/acme", article["canonical_url"])
}

func TestDevtoPublishRequiresAPIKey(t *testing.T) {
	d := NewDevtoConnector(time.Second, nil)
	_, err := d.Publish(context.Background(), PublishRequest{Title: "Hello"})
	assert.Error(t, err)
}

func TestDevtoTagCap(t *testing.T) {
	d := NewDevtoConnector(time.Second, []string{"a", "b", "c", "d", "e"})
	assert.Len(t, d.tags, 4)

	d = NewDevtoConnector(time.Second, nil)
	assert.Equal(t, []string{"ai", "engineering"}, d.tags)
}

func TestNormalizeDevtoTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "acme"},
		{" /acme/ ", "acme"},
		{"acme/series", "acme/series"},
		{"not a slug!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDevtoTarget(tt.in), tt.in)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Koszty: LLM w chmurze?", "koszty-llm-w-chmurze"},
		{"***", "post"},
		{"--edges--", "edges"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}
