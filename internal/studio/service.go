// Package studio implements the brand-content pipeline core: strategy
// registry, candidate cache, draft generation, the publish queue state
// machine, credential profiles and the audit log.
package studio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/brand-studio/internal/connectors"
	"github.com/jonesrussell/brand-studio/internal/discovery"
	"github.com/jonesrussell/brand-studio/internal/generator"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
)

// DiscoveryProvider is the external discovery collaborator contract.
type DiscoveryProvider interface {
	Discover(ctx context.Context, mode string, rssURLs []string) ([]discovery.Item, error)
}

// AuditMirror forwards audit entries to the host sink, best-effort.
type AuditMirror interface {
	Publish(entry models.AuditEntry) bool
}

// Deps carries the collaborators the service needs.
type Deps struct {
	Store      *store.Store
	Logger     logger.Logger
	Discovery  DiscoveryProvider
	Generator  generator.TextGenerator
	Connectors *connectors.Registry
	Mirror     AuditMirror
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service is the process-wide authoritative state holder. Each bucket
// has its own mutex; mutations are read-modify-write cycles persisted
// synchronously before returning. Lock ordering where both buckets are
// involved is always runtime before accounts.
type Service struct {
	store      *store.Store
	log        logger.Logger
	discovery  DiscoveryProvider
	generate   generator.TextGenerator
	connectors *connectors.Registry
	mirror     AuditMirror
	now        func() time.Time

	runtimeMu sync.Mutex
	runtime   runtimeState

	candMu sync.Mutex
	cand   candidateCacheState

	accountsMu sync.Mutex
	accounts   accountsState
}

// runtimeState is the runtime_state bucket document: strategies, draft
// cache, queue and audit log.
type runtimeState struct {
	ActiveStrategyID string                  `json:"active_strategy_id"`
	Strategies       []models.StrategyConfig `json:"strategies"`
	Drafts           map[string]draftEntry   `json:"drafts"`
	Queue            []models.QueueItem      `json:"queue"`
	Audit            []models.AuditEntry     `json:"audit"`
}

// draftEntry is one cached draft bundle keyed by input fingerprint.
type draftEntry struct {
	Fingerprint string             `json:"fingerprint"`
	CreatedAt   time.Time          `json:"created_at"`
	Bundle      models.DraftBundle `json:"bundle"`
}

// candidateCacheState is the candidates_cache bucket document.
type candidateCacheState struct {
	Key         string             `json:"key"`
	RefreshedAt time.Time          `json:"refreshed_at"`
	Items       []models.Candidate `json:"items"`
}

// accountsState is the accounts_state bucket document.
type accountsState struct {
	Profiles []models.CredentialProfile `json:"profiles"`
}

// New creates the service, eagerly loading all buckets and seeding the
// default strategy when the runtime bucket is empty.
func New(deps Deps) (*Service, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Service{
		store:      deps.Store,
		log:        deps.Logger,
		discovery:  deps.Discovery,
		generate:   deps.Generator,
		connectors: deps.Connectors,
		mirror:     deps.Mirror,
		now:        deps.Now,
	}

	if err := s.store.Load(store.BucketRuntime, &s.runtime); err != nil {
		return nil, err
	}
	if err := s.store.Load(store.BucketCandidates, &s.cand); err != nil {
		return nil, err
	}
	if err := s.store.Load(store.BucketAccounts, &s.accounts); err != nil {
		return nil, err
	}

	if s.runtime.Drafts == nil {
		s.runtime.Drafts = make(map[string]draftEntry)
	}
	if len(s.runtime.Strategies) == 0 {
		seeded := defaultStrategy(s.now().UTC())
		s.runtime.Strategies = []models.StrategyConfig{seeded}
		s.runtime.ActiveStrategyID = seeded.ID
		if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
			return nil, err
		}
		s.log.Info("seeded default strategy", logger.String("strategy_id", seeded.ID))
	}
	if s.runtime.ActiveStrategyID == "" {
		s.runtime.ActiveStrategyID = s.runtime.Strategies[0].ID
	}

	return s, nil
}

// newID mints a domain id with the original wire shape: a prefix plus
// ten hex characters of a fresh UUID.
func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:10]
}

// newAudit builds an audit entry; the caller appends it to the runtime
// bucket while holding the runtime lock.
func (s *Service) newAudit(actor, action, status, payload, details string) models.AuditEntry {
	hash := sha256.Sum256([]byte(payload))
	return models.AuditEntry{
		ID:          newID("audit"),
		Actor:       actor,
		Action:      action,
		Status:      status,
		PayloadHash: hex.EncodeToString(hash[:]),
		Details:     details,
		Timestamp:   s.now().UTC(),
	}
}

// forward mirrors an entry to the external sink. Best-effort; called
// after the local append has been persisted.
func (s *Service) forward(entry models.AuditEntry) {
	if s.mirror == nil {
		return
	}
	s.mirror.Publish(entry)
}

// fingerprint derives the draft cache key. Channel and language order
// must not matter, so both are sorted into the digest.
func fingerprint(candidateID string, channels, languages []string, tone string) string {
	sortedChannels := append([]string(nil), channels...)
	sort.Strings(sortedChannels)
	sortedLanguages := append([]string(nil), languages...)
	sort.Strings(sortedLanguages)

	h := sha256.New()
	h.Write([]byte(candidateID))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sortedChannels, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sortedLanguages, ",")))
	h.Write([]byte{0})
	h.Write([]byte(tone))
	return hex.EncodeToString(h.Sum(nil))
}

// discoveryCacheKey derives the candidate cache key from the strategy's
// discovery-relevant fields. The TTL participates in freshness, not in
// the key.
func discoveryCacheKey(strategy models.StrategyConfig) string {
	doc, _ := json.Marshal(struct {
		Mode     string   `json:"mode"`
		RSSURLs  []string `json:"rss_urls"`
		Keywords []string `json:"keywords"`
	}{
		Mode:     strategy.DiscoveryMode,
		RSSURLs:  strategy.RSSURLs,
		Keywords: strategy.TopicKeywords,
	})
	digest := sha256.Sum256(doc)
	return hex.EncodeToString(digest[:])
}
