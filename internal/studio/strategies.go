package studio

import (
	"fmt"
	"time"

	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
)

const (
	defaultStrategyID  = "default"
	defaultCacheTTL    = 300
	defaultLimit       = 20
	actionStrategyNew  = "strategy.create"
	actionStrategyEdit = "strategy.update"
	actionStrategyUse  = "strategy.activate"
	actionStrategyDrop = "strategy.delete"
	actionConfigSave   = "config.save"
)

// defaultStrategy returns the hard-default strategy seeded on first
// start and used as the copy base when none is named.
func defaultStrategy(now time.Time) models.StrategyConfig {
	return models.StrategyConfig{
		ID:              defaultStrategyID,
		Name:            "Default",
		DiscoveryMode:   models.DiscoveryStub,
		RSSURLs:         []string{},
		TopicKeywords:   []string{},
		CacheTTLSeconds: defaultCacheTTL,
		MinScore:        0,
		Limit:           defaultLimit,
		ActiveChannels:  []string{models.ChannelX, models.ChannelGitHub, models.ChannelBlog},
		DraftLanguages:  []string{models.LangPL, models.LangEN},
		DefaultAccounts: map[string]string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Strategies returns the active strategy id and all strategies.
func (s *Service) Strategies() (string, []models.StrategyConfig) {
	s.runtimeMu.Lock()
	defer s.runtimeMu.Unlock()
	items := make([]models.StrategyConfig, len(s.runtime.Strategies))
	copy(items, s.runtime.Strategies)
	return s.runtime.ActiveStrategyID, items
}

// ActiveStrategy returns a copy of the currently active strategy.
func (s *Service) ActiveStrategy() models.StrategyConfig {
	s.runtimeMu.Lock()
	defer s.runtimeMu.Unlock()
	return *s.activeStrategyLocked()
}

func (s *Service) activeStrategyLocked() *models.StrategyConfig {
	for i := range s.runtime.Strategies {
		if s.runtime.Strategies[i].ID == s.runtime.ActiveStrategyID {
			return &s.runtime.Strategies[i]
		}
	}
	// The seed in New guarantees at least one strategy; fall back to
	// the first if the active pointer ever dangles.
	s.runtime.ActiveStrategyID = s.runtime.Strategies[0].ID
	return &s.runtime.Strategies[0]
}

func (s *Service) strategyLocked(id string) *models.StrategyConfig {
	for i := range s.runtime.Strategies {
		if s.runtime.Strategies[i].ID == id {
			return &s.runtime.Strategies[i]
		}
	}
	return nil
}

// CreateStrategy copies the base strategy (hard defaults when absent)
// under a fresh id. The new strategy is not activated.
func (s *Service) CreateStrategy(actor string, req models.StrategyCreateRequest) (models.StrategyConfig, error) {
	now := s.now().UTC()

	s.runtimeMu.Lock()

	base := defaultStrategy(now)
	if req.BaseStrategyID != "" {
		found := s.strategyLocked(req.BaseStrategyID)
		if found == nil {
			s.runtimeMu.Unlock()
			return models.StrategyConfig{}, fmt.Errorf("%w: base strategy %s", models.ErrNotFound, req.BaseStrategyID)
		}
		base = cloneStrategy(*found)
	}

	base.ID = newID("strategy")
	base.Name = req.Name
	base.CreatedAt = now
	base.UpdatedAt = now

	s.runtime.Strategies = append(s.runtime.Strategies, base)
	entry := s.newAudit(actor, actionStrategyNew, "ok", base.ID, "")
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, err
	}
	s.runtimeMu.Unlock()

	// Forwarding can block for the mirror timeout; never do it under
	// the runtime lock.
	s.forward(entry)
	return cloneStrategy(base), nil
}

// UpdateStrategy applies a partial update to any strategy by id.
func (s *Service) UpdateStrategy(actor, id string, req models.StrategyUpdateRequest) (models.StrategyConfig, error) {
	if err := req.Validate(); err != nil {
		return models.StrategyConfig{}, err
	}

	s.runtimeMu.Lock()

	target := s.strategyLocked(id)
	if target == nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, fmt.Errorf("%w: strategy %s", models.ErrNotFound, id)
	}

	updated, err := s.applyStrategyUpdateLocked(*target, req)
	if err != nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, err
	}
	*target = updated

	entry := s.newAudit(actor, actionStrategyEdit, "ok", id, "")
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, err
	}
	s.runtimeMu.Unlock()

	s.forward(entry)
	return cloneStrategy(updated), nil
}

// ActivateStrategy moves the active pointer.
func (s *Service) ActivateStrategy(actor, id string) (models.StrategyConfig, error) {
	s.runtimeMu.Lock()

	target := s.strategyLocked(id)
	if target == nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, fmt.Errorf("%w: strategy %s", models.ErrNotFound, id)
	}
	s.runtime.ActiveStrategyID = id

	entry := s.newAudit(actor, actionStrategyUse, "ok", id, "")
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, err
	}
	activated := cloneStrategy(*target)
	s.runtimeMu.Unlock()

	s.forward(entry)
	return activated, nil
}

// DeleteStrategy removes a strategy. The active strategy and the sole
// remaining strategy cannot be deleted.
func (s *Service) DeleteStrategy(actor, id string) error {
	s.runtimeMu.Lock()

	if s.strategyLocked(id) == nil {
		s.runtimeMu.Unlock()
		return fmt.Errorf("%w: strategy %s", models.ErrNotFound, id)
	}
	if id == s.runtime.ActiveStrategyID {
		s.runtimeMu.Unlock()
		return fmt.Errorf("%w: cannot delete the active strategy", models.ErrConflict)
	}
	if len(s.runtime.Strategies) == 1 {
		s.runtimeMu.Unlock()
		return fmt.Errorf("%w: cannot delete the only strategy", models.ErrConflict)
	}

	kept := s.runtime.Strategies[:0]
	for _, strategy := range s.runtime.Strategies {
		if strategy.ID != id {
			kept = append(kept, strategy)
		}
	}
	s.runtime.Strategies = kept

	entry := s.newAudit(actor, actionStrategyDrop, "ok", id, "")
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return err
	}
	s.runtimeMu.Unlock()

	s.forward(entry)
	return nil
}

// SaveConfig is the primary save path: it only ever mutates the active
// strategy. A request naming a different strategy is rejected so a
// caller editing a non-active strategy cannot silently overwrite the
// wrong configuration.
func (s *Service) SaveConfig(actor string, req models.ConfigSaveRequest) (models.StrategyConfig, error) {
	if err := req.StrategyUpdateRequest.Validate(); err != nil {
		return models.StrategyConfig{}, err
	}

	s.runtimeMu.Lock()

	active := s.activeStrategyLocked()
	if req.StrategyID != "" && req.StrategyID != active.ID {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, fmt.Errorf(
			"%w: strategy %s is not active; activate it before saving config",
			models.ErrConflict, req.StrategyID,
		)
	}

	updated, err := s.applyStrategyUpdateLocked(*active, req.StrategyUpdateRequest)
	if err != nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, err
	}
	*active = updated
	activeID := active.ID

	entry := s.newAudit(actor, actionConfigSave, "ok", activeID, "")
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return models.StrategyConfig{}, err
	}
	s.runtimeMu.Unlock()

	s.forward(entry)
	s.log.Info("config saved",
		logger.String("strategy_id", activeID),
		logger.String("actor", actor),
	)
	return cloneStrategy(updated), nil
}

// applyStrategyUpdateLocked merges a partial update into a copy of the
// strategy and validates the result, including default-account
// references. Callers hold runtimeMu.
func (s *Service) applyStrategyUpdateLocked(
	strategy models.StrategyConfig,
	req models.StrategyUpdateRequest,
) (models.StrategyConfig, error) {
	strategy = cloneStrategy(strategy)

	if req.Name != nil {
		strategy.Name = *req.Name
	}
	if req.DiscoveryMode != nil {
		strategy.DiscoveryMode = *req.DiscoveryMode
	}
	if req.RSSURLs != nil {
		strategy.RSSURLs = models.NormalizeList(*req.RSSURLs, false)
	}
	if req.TopicKeywords != nil {
		strategy.TopicKeywords = models.NormalizeList(*req.TopicKeywords, true)
	}
	if req.CacheTTLSeconds != nil {
		strategy.CacheTTLSeconds = *req.CacheTTLSeconds
	}
	if req.MinScore != nil {
		strategy.MinScore = *req.MinScore
	}
	if req.Limit != nil {
		strategy.Limit = *req.Limit
	}
	if req.ActiveChannels != nil {
		strategy.ActiveChannels = models.NormalizeList(*req.ActiveChannels, true)
	}
	if req.DraftLanguages != nil {
		strategy.DraftLanguages = models.NormalizeList(*req.DraftLanguages, true)
	}
	if req.DefaultAccounts != nil {
		strategy.DefaultAccounts = map[string]string{}
		for ch, profileID := range *req.DefaultAccounts {
			strategy.DefaultAccounts[ch] = profileID
		}
	}

	if err := strategy.Validate(); err != nil {
		return models.StrategyConfig{}, err
	}
	if err := s.validateDefaultAccounts(strategy.DefaultAccounts); err != nil {
		return models.StrategyConfig{}, err
	}

	strategy.UpdatedAt = s.now().UTC()
	return strategy, nil
}

// validateDefaultAccounts checks that every referenced profile exists,
// is enabled and is on the channel it is the default for.
func (s *Service) validateDefaultAccounts(defaults map[string]string) error {
	if len(defaults) == 0 {
		return nil
	}

	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	for ch, profileID := range defaults {
		profile := s.profileLocked(profileID)
		if profile == nil {
			return fmt.Errorf("%w: default account %s for channel %s does not exist", models.ErrValidation, profileID, ch)
		}
		if profile.Channel != ch {
			return fmt.Errorf("%w: default account %s is not a %s profile", models.ErrValidation, profileID, ch)
		}
		if !profile.Enabled {
			return fmt.Errorf("%w: default account %s is disabled", models.ErrValidation, profileID)
		}
	}
	return nil
}

func cloneStrategy(strategy models.StrategyConfig) models.StrategyConfig {
	strategy.RSSURLs = append([]string(nil), strategy.RSSURLs...)
	strategy.TopicKeywords = append([]string(nil), strategy.TopicKeywords...)
	strategy.ActiveChannels = append([]string(nil), strategy.ActiveChannels...)
	strategy.DraftLanguages = append([]string(nil), strategy.DraftLanguages...)
	defaults := make(map[string]string, len(strategy.DefaultAccounts))
	for ch, id := range strategy.DefaultAccounts {
		defaults[ch] = id
	}
	strategy.DefaultAccounts = defaults
	return strategy
}
