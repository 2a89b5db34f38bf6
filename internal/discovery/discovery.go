// Package discovery fetches candidate topics from external sources.
// Source failures in live mode are skipped, not fatal: discovery is an
// aggregation over unreliable collaborators.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
)

const (
	defaultTimeout    = 8 * time.Second
	defaultMaxPerFeed = 8
	maxGitHubItems    = 12
	maxHNItems        = 12
	maxSummaryRunes   = 500
	// Items without a publication date are treated as a day old.
	unknownAgeMinutes = 24 * 60

	userAgent = "brand-studio/1.0"
)

// Item is one raw discovery result, before scoring.
type Item struct {
	Source     string `json:"source"`
	URL        string `json:"url"`
	Topic      string `json:"topic"`
	Summary    string `json:"summary"`
	Language   string `json:"language"`
	AgeMinutes int    `json:"age_minutes"`
}

// Service aggregates candidate sources according to the strategy's
// discovery mode.
type Service struct {
	client     *http.Client
	parser     *gofeed.Parser
	log        logger.Logger
	maxPerFeed int
	now        func() time.Time
}

// Config holds discovery tuning.
type Config struct {
	Timeout         time.Duration
	MaxItemsPerFeed int
}

// NewService creates a discovery service.
func NewService(cfg Config, log logger.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxItemsPerFeed <= 0 {
		cfg.MaxItemsPerFeed = defaultMaxPerFeed
	}
	return &Service{
		client:     &http.Client{Timeout: cfg.Timeout},
		parser:     gofeed.NewParser(),
		log:        log,
		maxPerFeed: cfg.MaxItemsPerFeed,
		now:        time.Now,
	}
}

// Discover returns raw candidate items for the given discovery mode.
// Live sources that fail are skipped; Discover only errors when live
// discovery was requested and every source failed.
func (s *Service) Discover(ctx context.Context, mode string, rssURLs []string) ([]Item, error) {
	switch mode {
	case models.DiscoveryStub:
		return StubItems(), nil
	case models.DiscoveryLive:
		return s.discoverLive(ctx, rssURLs)
	case models.DiscoveryHybrid:
		live, err := s.discoverLive(ctx, rssURLs)
		if err != nil {
			s.log.Warn("hybrid discovery falling back to stub set", logger.Error(err))
			return StubItems(), nil
		}
		return append(StubItems(), live...), nil
	default:
		return nil, fmt.Errorf("%w: unknown discovery mode %q", models.ErrValidation, mode)
	}
}

func (s *Service) discoverLive(ctx context.Context, rssURLs []string) ([]Item, error) {
	var items []Item
	var failures int

	rssItems, err := s.fetchRSS(ctx, rssURLs)
	if err != nil {
		failures++
		s.log.Warn("rss discovery failed", logger.Error(err))
	}
	items = append(items, rssItems...)

	githubItems, err := s.fetchGitHub(ctx)
	if err != nil {
		failures++
		s.log.Warn("github discovery failed", logger.Error(err))
	}
	items = append(items, githubItems...)

	hnItems, err := s.fetchHN(ctx)
	if err != nil {
		failures++
		s.log.Warn("hacker news discovery failed", logger.Error(err))
	}
	items = append(items, hnItems...)

	if len(items) == 0 && failures > 0 {
		return nil, fmt.Errorf("%w: all discovery sources failed", models.ErrCollaborator)
	}
	return items, nil
}

// fetchRSS pulls up to maxPerFeed entries from each configured feed.
// Individual feed failures are skipped.
func (s *Service) fetchRSS(ctx context.Context, urls []string) ([]Item, error) {
	var items []Item
	var lastErr error
	for _, url := range urls {
		feed, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			lastErr = err
			s.log.Warn("feed unreadable, skipping",
				logger.String("url", url),
				logger.Error(err),
			)
			continue
		}
		for i, entry := range feed.Items {
			if i >= s.maxPerFeed {
				break
			}
			topic := entry.Title
			if topic == "" {
				topic = "RSS topic"
			}
			summary := entry.Description
			if summary == "" {
				summary = topic
			}
			link := entry.Link
			if link == "" {
				link = url
			}
			items = append(items, Item{
				Source:     "rss",
				URL:        link,
				Topic:      topic,
				Summary:    truncate(summary, maxSummaryRunes),
				Language:   models.LangOther,
				AgeMinutes: s.ageMinutes(entry.PublishedParsed),
			})
		}
	}
	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

func (s *Service) fetchGitHub(ctx context.Context) ([]Item, error) {
	url := fmt.Sprintf(
		"https://api.github.com/search/repositories?q=topic%%3Aai+stars%%3A%%3E200&sort=updated&order=desc&per_page=%d",
		maxGitHubItems,
	)
	var payload struct {
		Items []struct {
			FullName    string `json:"full_name"`
			Description string `json:"description"`
			HTMLURL     string `json:"html_url"`
			UpdatedAt   string `json:"updated_at"`
		} `json:"items"`
	}
	if err := s.getJSON(ctx, url, map[string]string{"Accept": "application/vnd.github+json"}, &payload); err != nil {
		return nil, fmt.Errorf("github search: %w", err)
	}

	items := make([]Item, 0, len(payload.Items))
	for _, repo := range payload.Items {
		summary := repo.Description
		if summary == "" {
			summary = repo.FullName
		}
		age := unknownAgeMinutes
		if updated, err := time.Parse(time.RFC3339, repo.UpdatedAt); err == nil {
			age = s.ageMinutes(&updated)
		}
		items = append(items, Item{
			Source:     "github",
			URL:        repo.HTMLURL,
			Topic:      repo.FullName,
			Summary:    truncate(summary, maxSummaryRunes),
			Language:   models.LangEN,
			AgeMinutes: age,
		})
	}
	return items, nil
}

func (s *Service) fetchHN(ctx context.Context) ([]Item, error) {
	var ids []int64
	if err := s.getJSON(ctx, "https://hacker-news.firebaseio.com/v0/topstories.json", nil, &ids); err != nil {
		return nil, fmt.Errorf("hacker news top stories: %w", err)
	}
	if len(ids) > maxHNItems {
		ids = ids[:maxHNItems]
	}

	var items []Item
	for _, id := range ids {
		var story struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Time  int64  `json:"time"`
		}
		storyURL := fmt.Sprintf("https://hacker-news.firebaseio.com/v0/item/%d.json", id)
		if err := s.getJSON(ctx, storyURL, nil, &story); err != nil {
			s.log.Debug("hacker news story unreadable, skipping",
				logger.String("url", storyURL),
				logger.Error(err),
			)
			continue
		}
		if story.Title == "" {
			continue
		}
		link := story.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
		}
		age := unknownAgeMinutes
		if story.Time > 0 {
			published := time.Unix(story.Time, 0).UTC()
			age = s.ageMinutes(&published)
		}
		items = append(items, Item{
			Source:     "hn",
			URL:        link,
			Topic:      story.Title,
			Summary:    story.Title,
			Language:   models.LangEN,
			AgeMinutes: age,
		})
	}
	return items, nil
}

func (s *Service) getJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (s *Service) ageMinutes(published *time.Time) int {
	if published == nil {
		return unknownAgeMinutes
	}
	minutes := int(s.now().UTC().Sub(published.UTC()).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// StubItems returns the fixed sample set used in stub discovery mode.
func StubItems() []Item {
	return []Item{
		{
			Source:     "github",
			URL:        "https://github.com/trending",
			Topic:      "Runtime governance for local-first AI stacks",
			Summary:    "Growing discussion around governance and safe runtime fallback paths.",
			Language:   models.LangEN,
			AgeMinutes: 40,
		},
		{
			Source:     "hn",
			URL:        "https://news.ycombinator.com/",
			Topic:      "Cost controls for hybrid local/cloud LLM routing",
			Summary:    "Thread on balancing local privacy with cloud elasticity.",
			Language:   models.LangEN,
			AgeMinutes: 120,
		},
		{
			Source:     "rss",
			URL:        "https://example.org/devops-ai",
			Topic:      "Jak budowac moduly pluginowe bez dlugu w core",
			Summary:    "Artykul o kontraktach modulowych i separacji produktu od platformy.",
			Language:   models.LangPL,
			AgeMinutes: 300,
		},
	}
}
