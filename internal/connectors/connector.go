// Package connectors defines the per-channel publish connector contract
// and the concrete connectors the module ships with.
package connectors

import (
	"context"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// PublishRequest carries one variant to a channel connector.
type PublishRequest struct {
	// Reference is the queue item id, usable for deterministic
	// external ids in local connectors.
	Reference string
	Title     string
	Content   string
	// Target is the resolved publish destination (repo, publication,
	// subreddit) — queue override first, profile target second.
	Target string
	// Path is the in-repo file path for repository publishes.
	Path    string
	Profile models.CredentialProfile
}

// Result reports a successful publish.
type Result struct {
	ExternalID string
	URL        string
	Message    string
}

// Connector publishes content to one channel and checks credentials.
// Implementations must honor the context deadline; the queue state
// machine converts any returned error into a failed queue item rather
// than propagating it.
type Connector interface {
	Publish(ctx context.Context, req PublishRequest) (*Result, error)
	CheckCredentials(ctx context.Context, profile models.CredentialProfile) error
}

// Registry maps channels to connectors. Channels without a registered
// connector fall back to the local stub connector so the queue state
// machine stays exercisable without live credentials.
type Registry struct {
	byChannel map[string]Connector
	fallback  Connector
}

// NewRegistry creates a registry with the given fallback connector.
func NewRegistry(fallback Connector) *Registry {
	return &Registry{
		byChannel: make(map[string]Connector),
		fallback:  fallback,
	}
}

// Register binds a connector to a channel.
func (r *Registry) Register(channel string, c Connector) {
	r.byChannel[channel] = c
}

// For returns the connector for a channel, falling back to the stub.
func (r *Registry) For(channel string) Connector {
	if c, ok := r.byChannel[channel]; ok {
		return c
	}
	return r.fallback
}

// Lookup returns the registered connector for a channel, if any. Used
// by credential tests to distinguish live checks from local-only
// validation.
func (r *Registry) Lookup(channel string) (Connector, bool) {
	c, ok := r.byChannel[channel]
	return c, ok
}
