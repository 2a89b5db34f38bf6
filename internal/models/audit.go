package models

import "time"

// AuditEntry is one immutable record of a mutating action. Entries are
// append-only and best-effort mirrored to the host's audit sink.
type AuditEntry struct {
	ID          string    `json:"id"`
	Actor       string    `json:"actor"`
	Action      string    `json:"action"`
	Status      string    `json:"status"`
	PayloadHash string    `json:"payload_hash"`
	Details     string    `json:"details,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AuditResponse is the payload for GET /audit.
type AuditResponse struct {
	Count int          `json:"count"`
	Items []AuditEntry `json:"items"`
}
