package connectors

import (
	"context"
	"fmt"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// StubConnector publishes locally without any network call. It is the
// registry fallback for channels without a wire-level connector.
type StubConnector struct{}

// NewStubConnector creates a stub connector.
func NewStubConnector() *StubConnector {
	return &StubConnector{}
}

// Publish succeeds deterministically.
func (s *StubConnector) Publish(_ context.Context, req PublishRequest) (*Result, error) {
	return &Result{
		ExternalID: "ext-" + req.Reference,
		URL:        fmt.Sprintf("https://example.org/published/%s", req.Reference),
		Message:    "Published successfully",
	}, nil
}

// CheckCredentials performs no remote check; required-field presence is
// validated by the profile registry.
func (s *StubConnector) CheckCredentials(_ context.Context, _ models.CredentialProfile) error {
	return nil
}
