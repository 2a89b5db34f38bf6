package studio

import (
	"sort"
	"strings"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// AuditEntries returns audit entries newest-first. Category matches an
// action exactly or as a dotted prefix, so "queue" covers queue.create
// and queue.publish.
func (s *Service) AuditEntries(category, status string, limit int) []models.AuditEntry {
	s.runtimeMu.Lock()
	defer s.runtimeMu.Unlock()

	out := make([]models.AuditEntry, 0, len(s.runtime.Audit))
	for _, entry := range s.runtime.Audit {
		if category != "" && entry.Action != category && !strings.HasPrefix(entry.Action, category+".") {
			continue
		}
		if status != "" && entry.Status != status {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
