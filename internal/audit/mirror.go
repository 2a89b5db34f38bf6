// Package audit forwards audit entries to the host's audit sink.
// Mirroring is best-effort: a failed forward never affects the local
// append, and repeated failures suspend forwarding with backoff so a
// dead sink cannot stall request handling.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
)

const (
	defaultTimeout = 800 * time.Millisecond
	minTimeout     = 100 * time.Millisecond
	maxBackoff     = 60 * time.Second
	maxBackoffExp  = 6

	// Source label for github publish events, surfaced as a distinct
	// technical category in the host's global audit view.
	githubPublishSource = "core.technical.github_publish"

	ingestTokenHeader = "X-Venom-Audit-Token"
)

// MirrorConfig holds the audit sink settings.
type MirrorConfig struct {
	Enabled     bool
	BaseURL     string
	Timeout     time.Duration
	Source      string
	IngestToken string
}

// Mirror is the best-effort audit sink client.
type Mirror struct {
	cfg    MirrorConfig
	client *http.Client
	log    logger.Logger

	mu             sync.Mutex
	failureCount   int
	suspendedUntil time.Time

	now func() time.Time
}

// NewMirror creates a mirror client. The timeout is deliberately
// aggressive: forwarding must never stall the primary request.
func NewMirror(cfg MirrorConfig, log logger.Logger) *Mirror {
	if cfg.Timeout < minTimeout {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Source == "" {
		cfg.Source = "module.brand_studio"
	}
	return &Mirror{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
		now:    time.Now,
	}
}

// Publish forwards one entry to the sink. Returns whether the forward
// succeeded; all failures are swallowed after recording backoff state.
func (m *Mirror) Publish(entry models.AuditEntry) bool {
	if !m.cfg.Enabled {
		return false
	}

	m.mu.Lock()
	suspended := m.now().Before(m.suspendedUntil)
	m.mu.Unlock()
	if suspended {
		return false
	}

	source := m.resolveSource(entry)
	payloadContext := strings.TrimSpace(entry.Details)
	if payloadContext == "" {
		payloadContext = entry.PayloadHash
	}
	payload := map[string]any{
		"id":      source + ":" + entry.ID,
		"source":  source,
		"action":  entry.Action,
		"actor":   entry.Actor,
		"status":  entry.Status,
		"context": payloadContext,
		"details": map[string]any{
			"module_event_id":     entry.ID,
			"module_payload_hash": entry.PayloadHash,
			"module_details":      entry.Details,
		},
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
	}

	if err := m.post(payload); err != nil {
		m.mu.Lock()
		m.failureCount++
		exp := m.failureCount
		if exp > maxBackoffExp {
			exp = maxBackoffExp
		}
		backoff := time.Duration(1<<uint(exp)) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		m.suspendedUntil = m.now().Add(backoff)
		m.mu.Unlock()

		m.log.Debug("audit mirror forward failed",
			logger.String("action", entry.Action),
			logger.Duration("backoff", backoff),
			logger.Error(err),
		)
		return false
	}

	m.mu.Lock()
	m.failureCount = 0
	m.suspendedUntil = time.Time{}
	m.mu.Unlock()
	return true
}

func (m *Mirror) post(payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	url := strings.TrimRight(m.cfg.BaseURL, "/") + "/api/v1/audit/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.cfg.IngestToken != "" {
		req.Header.Set(ingestTokenHeader, m.cfg.IngestToken)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("audit sink status %d", resp.StatusCode)
	}
	return nil
}

// resolveSource tags github publish queue events with their own
// technical source so the host audit view can separate them.
func (m *Mirror) resolveSource(entry models.AuditEntry) string {
	details := strings.ToLower(entry.Details)
	if strings.HasPrefix(entry.Action, "queue.") &&
		(strings.HasPrefix(details, "github:") || strings.Contains(details, ":github")) {
		return githubPublishSource
	}
	return m.cfg.Source
}
