package models

import (
	"fmt"
	"strings"
	"time"
)

// Discovery modes for a strategy.
const (
	DiscoveryStub   = "stub"
	DiscoveryHybrid = "hybrid"
	DiscoveryLive   = "live"
)

// Strategy limits.
const (
	MinCacheTTLSeconds = 30
	MinStrategyLimit   = 1
	MaxStrategyLimit   = 200
)

// StrategyConfig is a named bundle of discovery and publish parameters.
// Exactly one strategy is active at any time.
type StrategyConfig struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	DiscoveryMode   string            `json:"discovery_mode"`
	RSSURLs         []string          `json:"rss_urls"`
	TopicKeywords   []string          `json:"topic_keywords"`
	CacheTTLSeconds int               `json:"cache_ttl_seconds"`
	MinScore        float64           `json:"min_score"`
	Limit           int               `json:"limit"`
	ActiveChannels  []string          `json:"active_channels"`
	DraftLanguages  []string          `json:"draft_languages"`
	DefaultAccounts map[string]string `json:"default_accounts"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CacheTTL returns the strategy cache TTL as a duration.
func (s *StrategyConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Validate checks the strategy invariants.
func (s *StrategyConfig) Validate() error {
	switch s.DiscoveryMode {
	case DiscoveryStub, DiscoveryHybrid, DiscoveryLive:
	default:
		return fmt.Errorf("%w: unknown discovery_mode %q", ErrValidation, s.DiscoveryMode)
	}
	if s.CacheTTLSeconds < MinCacheTTLSeconds {
		return fmt.Errorf("%w: cache_ttl_seconds must be >= %d", ErrValidation, MinCacheTTLSeconds)
	}
	if s.MinScore < 0 || s.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be within [0,1]", ErrValidation)
	}
	if s.Limit < MinStrategyLimit || s.Limit > MaxStrategyLimit {
		return fmt.Errorf("%w: limit must be within [%d,%d]", ErrValidation, MinStrategyLimit, MaxStrategyLimit)
	}
	if len(s.ActiveChannels) == 0 {
		return fmt.Errorf("%w: active_channels must not be empty", ErrValidation)
	}
	for _, ch := range s.ActiveChannels {
		if !ValidChannel(ch) {
			return fmt.Errorf("%w: unknown channel %q", ErrValidation, ch)
		}
	}
	if len(s.DraftLanguages) == 0 {
		return fmt.Errorf("%w: draft_languages must not be empty", ErrValidation)
	}
	for _, lang := range s.DraftLanguages {
		if !ValidDraftLanguage(lang) {
			return fmt.Errorf("%w: unknown draft language %q", ErrValidation, lang)
		}
	}
	for ch := range s.DefaultAccounts {
		if !ValidChannel(ch) {
			return fmt.Errorf("%w: default_accounts references unknown channel %q", ErrValidation, ch)
		}
	}
	return nil
}

// StrategyCreateRequest is the payload for POST /strategies. All fields
// except Name are copied from the base strategy (or hard defaults).
type StrategyCreateRequest struct {
	Name           string `binding:"required,min=1,max=255" json:"name"`
	BaseStrategyID string `json:"base_strategy_id"`
}

// StrategyUpdateRequest is a partial strategy update. Nil fields are
// left unchanged.
type StrategyUpdateRequest struct {
	Name            *string            `binding:"omitempty,min=1,max=255" json:"name"`
	DiscoveryMode   *string            `json:"discovery_mode"`
	RSSURLs         *[]string          `json:"rss_urls"`
	TopicKeywords   *[]string          `json:"topic_keywords"`
	CacheTTLSeconds *int               `json:"cache_ttl_seconds"`
	MinScore        *float64           `json:"min_score"`
	Limit           *int               `json:"limit"`
	ActiveChannels  *[]string          `json:"active_channels"`
	DraftLanguages  *[]string          `json:"draft_languages"`
	DefaultAccounts *map[string]string `json:"default_accounts"`
}

// Validate checks that at least one field is set.
func (r *StrategyUpdateRequest) Validate() error {
	if r.Name == nil && r.DiscoveryMode == nil && r.RSSURLs == nil &&
		r.TopicKeywords == nil && r.CacheTTLSeconds == nil && r.MinScore == nil &&
		r.Limit == nil && r.ActiveChannels == nil && r.DraftLanguages == nil &&
		r.DefaultAccounts == nil {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	return nil
}

// ConfigSaveRequest is the primary save path payload (PUT /config). It
// only ever applies to the active strategy; StrategyID is an explicit
// guard against saving while a different strategy is selected for
// editing.
type ConfigSaveRequest struct {
	StrategyID string `json:"strategy_id"`
	StrategyUpdateRequest
}

// ConfigResponse is the payload for GET /config.
type ConfigResponse struct {
	ActiveStrategyID string         `json:"active_strategy_id"`
	ActiveStrategy   StrategyConfig `json:"active_strategy"`
}

// StrategiesResponse is the payload for GET /strategies.
type StrategiesResponse struct {
	ActiveStrategyID string           `json:"active_strategy_id"`
	Count            int              `json:"count"`
	Items            []StrategyConfig `json:"items"`
}

// NormalizeList trims entries, drops blanks and removes duplicates
// preserving first-seen order. With lowercase=true entries are folded
// to lower case before deduplication (topic keywords).
func NormalizeList(values []string, lowercase bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lowercase {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
