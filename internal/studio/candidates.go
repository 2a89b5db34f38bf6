package studio

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/brand-studio/internal/discovery"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
)

const (
	actionSourcesRefresh = "sources.refresh"

	// Scoring weights. Freshness decays linearly over one day.
	scoreBase        = 0.4
	freshnessWeight  = 0.5
	keywordWeight    = 0.1
	freshnessWindow  = 24 * 60 // minutes
	freshAgeMinutes  = 120
	recentAgeMinutes = 12 * 60
)

// Candidates returns the cached candidate set filtered by the request,
// refreshing from discovery when the cache is stale or keyed to a
// different strategy configuration.
func (s *Service) Candidates(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, time.Time, error) {
	if err := filter.Validate(); err != nil {
		return nil, time.Time{}, err
	}

	strategy := s.ActiveStrategy()
	key := discoveryCacheKey(strategy)

	s.candMu.Lock()
	defer s.candMu.Unlock()

	if !s.freshLocked(key, strategy.CacheTTL()) {
		if err := s.refreshLocked(ctx, strategy, key); err != nil {
			return nil, time.Time{}, err
		}
	}

	return s.filterLocked(strategy, filter), s.cand.RefreshedAt, nil
}

// RefreshCandidates bypasses the freshness check unconditionally.
func (s *Service) RefreshCandidates(ctx context.Context, actor string) error {
	strategy := s.ActiveStrategy()
	key := discoveryCacheKey(strategy)

	s.candMu.Lock()
	err := s.refreshLocked(ctx, strategy, key)
	s.candMu.Unlock()

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.appendAudit(actor, actionSourcesRefresh, status, key, "")
	return err
}

func (s *Service) freshLocked(key string, ttl time.Duration) bool {
	if s.cand.Key != key || len(s.cand.Items) == 0 {
		return false
	}
	return s.now().UTC().Sub(s.cand.RefreshedAt) < ttl
}

// refreshLocked replaces the cached candidate set wholesale: fetch,
// score, sort by score descending, deduplicate by canonical URL and
// assign fresh ids. Callers hold candMu.
func (s *Service) refreshLocked(ctx context.Context, strategy models.StrategyConfig, key string) error {
	items, err := s.discovery.Discover(ctx, strategy.DiscoveryMode, strategy.RSSURLs)
	if err != nil {
		return fmt.Errorf("discover candidates: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		score, reasons := scoreItem(item, strategy.TopicKeywords)
		candidates = append(candidates, models.Candidate{
			Source:     item.Source,
			URL:        canonicalURL(item.URL),
			Topic:      item.Topic,
			Summary:    item.Summary,
			Language:   item.Language,
			Score:      score,
			AgeMinutes: item.AgeMinutes,
			Reasons:    reasons,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	seen := make(map[string]struct{}, len(candidates))
	deduped := candidates[:0]
	for _, c := range candidates {
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		c.ID = fmt.Sprintf("cand-%d", len(deduped)+1)
		deduped = append(deduped, c)
	}

	s.cand = candidateCacheState{
		Key:         key,
		RefreshedAt: s.now().UTC(),
		Items:       deduped,
	}
	if err := s.store.Save(store.BucketCandidates, &s.cand); err != nil {
		return err
	}

	s.log.Info("candidate cache refreshed",
		logger.String("mode", strategy.DiscoveryMode),
		logger.Int("count", len(deduped)),
	)
	return nil
}

// filterLocked applies the request filters on top of strategy defaults,
// preserving the cached ordering. Callers hold candMu.
func (s *Service) filterLocked(strategy models.StrategyConfig, filter models.CandidateFilter) []models.Candidate {
	minScore := strategy.MinScore
	if filter.MinScore != nil {
		minScore = *filter.MinScore
	}
	limit := strategy.Limit
	if filter.Limit != nil {
		limit = *filter.Limit
	}

	out := make([]models.Candidate, 0, limit)
	for _, c := range s.cand.Items {
		if filter.Lang != "" && c.Language != filter.Lang {
			continue
		}
		if filter.Channel != "" && models.SourceChannel(c.Source) != filter.Channel {
			continue
		}
		if c.Score < minScore {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// candidateByID looks a candidate up in the current cached set. Drafts
// may only be generated for currently-visible candidates.
func (s *Service) candidateByID(id string) (models.Candidate, error) {
	s.candMu.Lock()
	defer s.candMu.Unlock()
	for _, c := range s.cand.Items {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Candidate{}, fmt.Errorf("%w: candidate %s", models.ErrNotFound, id)
}

// scoreItem assigns the lightweight ranking heuristic: a base score,
// freshness decaying over a day and a bonus for topic keyword hits.
// The full NLP ranking lives with the discovery collaborator; this
// keeps filtering by min_score meaningful for every mode.
func scoreItem(item discovery.Item, keywords []string) (float64, []string) {
	age := item.AgeMinutes
	if age > freshnessWindow {
		age = freshnessWindow
	}
	freshness := freshnessWeight * (1 - float64(age)/float64(freshnessWindow))

	haystack := strings.ToLower(item.Topic + " " + item.Summary)
	hits := 0
	var matched []string
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(haystack, keyword) {
			hits++
			matched = append(matched, keyword)
		}
	}
	bonus := 0.0
	if hits > 0 {
		bonus = keywordWeight
		if hits > 1 {
			bonus = keywordWeight * 2
		}
	}

	score := scoreBase + freshness + bonus
	if score > 1 {
		score = 1
	}
	score = math.Round(score*100) / 100

	var reasons []string
	switch {
	case item.AgeMinutes <= freshAgeMinutes:
		reasons = append(reasons, "fresh")
	case item.AgeMinutes <= recentAgeMinutes:
		reasons = append(reasons, "recent")
	}
	if hits > 0 {
		reasons = append(reasons, "keyword fit: "+strings.Join(matched, ", "))
	}
	if item.Source == "github" || item.Source == "arxiv" {
		reasons = append(reasons, "authority fit")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "baseline relevance")
	}
	return score, reasons
}

// canonicalURL strips tracking parameters so the same article from two
// feeds deduplicates to one candidate.
func canonicalURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	for param := range query {
		lower := strings.ToLower(param)
		if strings.HasPrefix(lower, "utm_") || lower == "ref" || lower == "gclid" || lower == "fbclid" {
			query.Del(param)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// appendAudit appends and persists a standalone audit entry under the
// runtime lock, then forwards it.
func (s *Service) appendAudit(actor, action, status, payload, details string) {
	entry := s.newAudit(actor, action, status, payload, details)

	s.runtimeMu.Lock()
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.log.Error("persist audit entry", logger.Error(err))
	}
	s.runtimeMu.Unlock()

	s.forward(entry)
}
