package models

import "time"

// Credential profile roles.
const (
	RolePrimaryBrand    = "primary_brand"
	RoleSupportingBrand = "supporting_brand"
)

// Credential profile auth modes.
const (
	AuthAPIKey        = "api_key"
	AuthOAuth         = "oauth"
	AuthLoginPassword = "login_password"
	AuthUsernameOnly  = "username_only"
	AuthNone          = "none"
)

// Credential profile statuses. ProfileDisabled is operator-controlled
// via Enabled; credential tests only ever flip between configured and
// invalid.
const (
	ProfileConfigured = "configured"
	ProfileIncomplete = "incomplete"
	ProfileInvalid    = "invalid"
	ProfileDisabled   = "disabled"
)

const secretHintLength = 4

// CredentialProfile is one named identity/credential set for one
// channel. AuthSecret is persisted in the accounts bucket but never
// serialized into API responses; see Public.
type CredentialProfile struct {
	ProfileID           string     `json:"profile_id"`
	Channel             string     `json:"channel"`
	Role                string     `json:"role"`
	IdentityDisplayName string     `json:"identity_display_name"`
	IdentityHandle      string     `json:"identity_handle,omitempty"`
	AuthMode            string     `json:"auth_mode"`
	AuthSecret          string     `json:"auth_secret,omitempty"`
	Status              string     `json:"status"`
	Target              string     `json:"target,omitempty"`
	Enabled             bool       `json:"enabled"`
	IsDefault           bool       `json:"is_default"`
	SupportsProfileID   string     `json:"supports_profile_id,omitempty"`
	Capabilities        []string   `json:"capabilities,omitempty"`
	LastTestedAt        *time.Time `json:"last_tested_at,omitempty"`
	LastTestStatus      string     `json:"last_test_status,omitempty"`
	LastTestMessage     string     `json:"last_test_message,omitempty"`
	SuccessfulPublishes int        `json:"successful_publishes"`
	FailedPublishes     int        `json:"failed_publishes"`
	LastPublishedAt     *time.Time `json:"last_published_at,omitempty"`
	LastPublishStatus   string     `json:"last_publish_status,omitempty"`
	LastPublishMessage  string     `json:"last_publish_message,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CredentialProfileView is the API-facing shape of a profile. The secret
// is reduced to a presence flag and a masked hint.
type CredentialProfileView struct {
	CredentialProfile
	AuthSecret string `json:"auth_secret,omitempty"` // shadows the stored secret, always empty
	HasSecret  bool   `json:"has_secret"`
	SecretHint string `json:"secret_hint,omitempty"`
}

// Public returns the profile with the secret masked for API responses.
func (p CredentialProfile) Public() CredentialProfileView {
	view := CredentialProfileView{
		CredentialProfile: p,
		HasSecret:         p.AuthSecret != "",
	}
	view.CredentialProfile.AuthSecret = ""
	if n := len(p.AuthSecret); n > secretHintLength {
		view.SecretHint = "..." + p.AuthSecret[n-secretHintLength:]
	}
	return view
}

// ValidRole reports whether role names a known profile role.
func ValidRole(role string) bool {
	return role == RolePrimaryBrand || role == RoleSupportingBrand
}

// ValidAuthMode reports whether mode names a known auth mode.
func ValidAuthMode(mode string) bool {
	switch mode {
	case AuthAPIKey, AuthOAuth, AuthLoginPassword, AuthUsernameOnly, AuthNone:
		return true
	}
	return false
}

// ProfileCreateRequest is the payload for POST /credential-profiles.
type ProfileCreateRequest struct {
	Channel             string   `binding:"required,oneof=x github blog devto"                              json:"channel"`
	Role                string   `binding:"required,oneof=primary_brand supporting_brand"                   json:"role"`
	IdentityDisplayName string   `binding:"required,min=1,max=255"                                          json:"identity_display_name"`
	IdentityHandle      string   `binding:"max=255"                                                         json:"identity_handle"`
	AuthMode            string   `binding:"required,oneof=api_key oauth login_password username_only none"  json:"auth_mode"`
	AuthSecret          string   `json:"auth_secret"`
	Target              string   `binding:"max=512"                                                         json:"target"`
	Enabled             *bool    `json:"enabled"`
	IsDefault           bool     `json:"is_default"`
	SupportsProfileID   string   `json:"supports_profile_id"`
	Capabilities        []string `json:"capabilities"`
}

// ProfileUpdateRequest is a partial profile update. Nil fields are left
// unchanged; an empty-string secret clears the stored secret.
type ProfileUpdateRequest struct {
	IdentityDisplayName *string   `binding:"omitempty,min=1,max=255" json:"identity_display_name"`
	IdentityHandle      *string   `json:"identity_handle"`
	AuthSecret          *string   `json:"auth_secret"`
	Target              *string   `json:"target"`
	Enabled             *bool     `json:"enabled"`
	Capabilities        *[]string `json:"capabilities"`
}

// Validate checks that at least one field is set.
func (r *ProfileUpdateRequest) Validate() error {
	if r.IdentityDisplayName == nil && r.IdentityHandle == nil && r.AuthSecret == nil &&
		r.Target == nil && r.Enabled == nil && r.Capabilities == nil {
		return ErrValidation
	}
	return nil
}

// ProfileFilter narrows a profile listing.
type ProfileFilter struct {
	Channel string
	Role    string
	Status  string
}

// ProfileTestResult reports the outcome of a credential test.
type ProfileTestResult struct {
	ProfileID string    `json:"profile_id"`
	Success   bool      `json:"success"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	TestedAt  time.Time `json:"tested_at"`
}

// ProfilesResponse is the payload for GET /credential-profiles.
type ProfilesResponse struct {
	Count int                     `json:"count"`
	Items []CredentialProfileView `json:"items"`
}
