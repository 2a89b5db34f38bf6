package models

import "time"

// Queue item statuses. StatusDraft and StatusReady are reserved for a
// future manual-approval workflow; enqueue currently creates items
// directly as StatusQueued. StatusCancelled is a valid terminal state
// but no current operation produces it.
const (
	StatusDraft     = "draft"
	StatusReady     = "ready"
	StatusQueued    = "queued"
	StatusPublished = "published"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ValidQueueStatus reports whether s names a known queue status.
func ValidQueueStatus(s string) bool {
	switch s {
	case StatusDraft, StatusReady, StatusQueued, StatusPublished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// TerminalForPublish reports whether a publish attempt on an item with
// this status must be rejected. Failed items may be retried.
func TerminalForPublish(s string) bool {
	return s == StatusPublished || s == StatusCancelled
}

// QueueItem is one publish intent for one channel. Items are never
// physically deleted; the queue is an append-mostly log with status
// overwrite so the audit trail stays reconstructable after restart.
type QueueItem struct {
	ItemID             string    `json:"item_id"`
	DraftID            string    `json:"draft_id"`
	TargetChannel      string    `json:"target_channel"`
	TargetLanguage     string    `json:"target_language"`
	AccountID          string    `json:"account_id,omitempty"`
	AccountDisplayName string    `json:"account_display_name,omitempty"`
	TargetRepo         string    `json:"target_repo,omitempty"`
	TargetPath         string    `json:"target_path,omitempty"`
	PayloadOverride    string    `json:"payload_override,omitempty"`
	Status             string    `json:"status"`
	ExternalID         string    `json:"external_id,omitempty"`
	URL                string    `json:"url,omitempty"`
	Message            string    `json:"message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// QueueDraftRequest is the payload for POST /drafts/:draft_id/queue.
type QueueDraftRequest struct {
	TargetChannel   string `binding:"required,oneof=x github blog devto" json:"target_channel"`
	TargetLanguage  string `binding:"required,oneof=pl en"               json:"target_language"`
	AccountID       string `json:"account_id"`
	TargetRepo      string `json:"target_repo"`
	TargetPath      string `json:"target_path"`
	PayloadOverride string `json:"payload_override"`
}

// PublishRequest is the payload for POST /queue/:item_id/publish.
// ConfirmPublish is a deliberate double-guard against accidental
// publish actions.
type PublishRequest struct {
	ConfirmPublish bool `json:"confirm_publish"`
}

// PublishResult reports the outcome of a confirmed publish attempt. A
// failed connector call is a result, not an error: the state transition
// itself succeeded.
type PublishResult struct {
	Success     bool       `json:"success"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ExternalID  string     `json:"external_id,omitempty"`
	URL         string     `json:"url,omitempty"`
	Message     string     `json:"message"`
	Item        *QueueItem `json:"item,omitempty"`
}

// QueueResponse is the payload for GET /queue.
type QueueResponse struct {
	Count int         `json:"count"`
	Items []QueueItem `json:"items"`
}
