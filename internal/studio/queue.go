package studio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonesrussell/brand-studio/internal/connectors"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
)

const (
	actionQueueCreate  = "queue.create"
	actionQueuePublish = "queue.publish"
)

// QueueFilter narrows a queue listing.
type QueueFilter struct {
	Channel string
	Status  string
}

// EnqueueDraft creates a publish intent for one draft variant. Items
// are created directly in queued status; draft/ready are reserved for
// a future manual-approval workflow.
func (s *Service) EnqueueDraft(actor, draftID string, req models.QueueDraftRequest) (models.QueueItem, error) {
	now := s.now().UTC()

	s.runtimeMu.Lock()

	bundle, ok := s.draftByIDLocked(draftID)
	if !ok {
		s.runtimeMu.Unlock()
		return models.QueueItem{}, fmt.Errorf("%w: draft %s", models.ErrNotFound, draftID)
	}
	if _, ok := bundle.Variant(req.TargetChannel, req.TargetLanguage); !ok {
		s.runtimeMu.Unlock()
		return models.QueueItem{}, fmt.Errorf(
			"%w: draft %s has no %s/%s variant",
			models.ErrValidation, draftID, req.TargetChannel, req.TargetLanguage,
		)
	}

	profile, err := s.resolveAccount(req.TargetChannel, req.AccountID)
	if err != nil {
		s.runtimeMu.Unlock()
		return models.QueueItem{}, err
	}

	targetRepo := req.TargetRepo
	if targetRepo == "" {
		targetRepo = profile.Target
	}

	item := models.QueueItem{
		ItemID:             newID("queue"),
		DraftID:            draftID,
		TargetChannel:      req.TargetChannel,
		TargetLanguage:     req.TargetLanguage,
		AccountID:          profile.ProfileID,
		AccountDisplayName: profile.IdentityDisplayName,
		TargetRepo:         targetRepo,
		TargetPath:         req.TargetPath,
		PayloadOverride:    req.PayloadOverride,
		Status:             models.StatusQueued,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.runtime.Queue = append(s.runtime.Queue, item)

	entry := s.newAudit(actor, actionQueueCreate, models.StatusQueued, item.ItemID, "")
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return models.QueueItem{}, err
	}
	s.runtimeMu.Unlock()

	// Forwarding can block for the mirror timeout; never do it under
	// the runtime lock.
	s.forward(entry)
	return item, nil
}

// resolveAccount resolves the credential profile for an enqueue:
// explicit account first, then the active strategy's default for the
// channel, then the channel's default profile, then any enabled
// profile. Callers hold runtimeMu.
func (s *Service) resolveAccount(channel, accountID string) (models.CredentialProfile, error) {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	if accountID != "" {
		profile := s.profileLocked(accountID)
		if profile == nil {
			return models.CredentialProfile{}, fmt.Errorf("%w: credential profile %s", models.ErrNotFound, accountID)
		}
		if profile.Channel != channel {
			return models.CredentialProfile{}, fmt.Errorf(
				"%w: profile %s is a %s profile, not %s",
				models.ErrValidation, accountID, profile.Channel, channel,
			)
		}
		if !profile.Enabled {
			return models.CredentialProfile{}, fmt.Errorf("%w: profile %s is disabled", models.ErrValidation, accountID)
		}
		return *profile, nil
	}

	if strategyDefault := s.activeStrategyLocked().DefaultAccounts[channel]; strategyDefault != "" {
		if profile := s.profileLocked(strategyDefault); profile != nil && profile.Enabled {
			return *profile, nil
		}
	}

	var fallback *models.CredentialProfile
	for i := range s.accounts.Profiles {
		profile := &s.accounts.Profiles[i]
		if profile.Channel != channel || !profile.Enabled {
			continue
		}
		if profile.IsDefault {
			return *profile, nil
		}
		if fallback == nil {
			fallback = profile
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return models.CredentialProfile{}, fmt.Errorf(
		"%w: no enabled credential profile for channel %s", models.ErrConflict, channel,
	)
}

// PublishQueueItem performs the confirmed publish: queued (or failed,
// for a retry) transitions to published or failed depending on the
// connector outcome. Connector errors become a failed item, never a
// request-level error; the runtime lock is held across the connector
// call so an item cannot be published twice concurrently.
func (s *Service) PublishQueueItem(ctx context.Context, actor, itemID string, confirm bool) (models.PublishResult, error) {
	if !confirm {
		return models.PublishResult{}, models.ErrConfirmRequired
	}

	s.runtimeMu.Lock()

	item := s.queueItemLocked(itemID)
	if item == nil {
		s.runtimeMu.Unlock()
		return models.PublishResult{}, fmt.Errorf("%w: queue item %s", models.ErrNotFound, itemID)
	}
	if models.TerminalForPublish(item.Status) {
		s.runtimeMu.Unlock()
		return models.PublishResult{}, fmt.Errorf(
			"%w: queue item %s is already %s", models.ErrConflict, itemID, item.Status,
		)
	}

	bundle, ok := s.draftByIDLocked(item.DraftID)
	if !ok {
		s.runtimeMu.Unlock()
		return models.PublishResult{}, fmt.Errorf("%w: draft %s", models.ErrNotFound, item.DraftID)
	}
	variant, ok := bundle.Variant(item.TargetChannel, item.TargetLanguage)
	if !ok {
		s.runtimeMu.Unlock()
		return models.PublishResult{}, fmt.Errorf(
			"%w: draft %s has no %s/%s variant",
			models.ErrValidation, item.DraftID, item.TargetChannel, item.TargetLanguage,
		)
	}
	content := variant.Content
	if item.PayloadOverride != "" {
		content = item.PayloadOverride
	}

	profile := s.publishProfile(item.AccountID)

	candidateTopic := s.topicForCandidate(bundle.CandidateID)
	result, connErr := s.connectors.For(item.TargetChannel).Publish(ctx, connectors.PublishRequest{
		Reference: item.ItemID,
		Title:     candidateTopic,
		Content:   content,
		Target:    item.TargetRepo,
		Path:      item.TargetPath,
		Profile:   profile,
	})

	now := s.now().UTC()
	item.UpdatedAt = now
	publish := models.PublishResult{}
	if connErr != nil {
		item.Status = models.StatusFailed
		item.Message = connErr.Error()
		publish = models.PublishResult{
			Success: false,
			Status:  models.StatusFailed,
			Message: connErr.Error(),
		}
		s.log.Warn("publish connector failed",
			logger.String("item_id", item.ItemID),
			logger.String("channel", item.TargetChannel),
			logger.Error(connErr),
		)
	} else {
		item.Status = models.StatusPublished
		item.ExternalID = result.ExternalID
		item.URL = result.URL
		item.Message = result.Message
		publish = models.PublishResult{
			Success:     true,
			Status:      models.StatusPublished,
			PublishedAt: &now,
			ExternalID:  result.ExternalID,
			URL:         result.URL,
			Message:     result.Message,
		}
	}
	itemCopy := *item
	publish.Item = &itemCopy

	s.recordPublishTelemetry(item.AccountID, publish.Success, publish.Message, now)

	details := item.TargetChannel + ":" + item.ItemID
	entry := s.newAudit(actor, actionQueuePublish, item.Status, item.ItemID, details)
	s.runtime.Audit = append(s.runtime.Audit, entry)
	if err := s.store.Save(store.BucketRuntime, &s.runtime); err != nil {
		s.runtimeMu.Unlock()
		return models.PublishResult{}, err
	}
	s.runtimeMu.Unlock()

	s.forward(entry)
	return publish, nil
}

// QueueItems lists queue items newest-first, optionally filtered by
// channel and status.
func (s *Service) QueueItems(filter QueueFilter) []models.QueueItem {
	s.runtimeMu.Lock()
	defer s.runtimeMu.Unlock()

	items := make([]models.QueueItem, 0, len(s.runtime.Queue))
	for _, item := range s.runtime.Queue {
		if filter.Channel != "" && item.TargetChannel != filter.Channel {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func (s *Service) queueItemLocked(itemID string) *models.QueueItem {
	for i := range s.runtime.Queue {
		if s.runtime.Queue[i].ItemID == itemID {
			return &s.runtime.Queue[i]
		}
	}
	return nil
}

// publishProfile snapshots the item's credential profile. A profile
// deleted since enqueue yields an empty profile; the connector then
// reports the missing credentials as a publish failure.
func (s *Service) publishProfile(accountID string) models.CredentialProfile {
	if accountID == "" {
		return models.CredentialProfile{}
	}
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()
	if profile := s.profileLocked(accountID); profile != nil {
		return *profile
	}
	return models.CredentialProfile{}
}

// recordPublishTelemetry updates the profile's publish counters and
// persists the accounts bucket.
func (s *Service) recordPublishTelemetry(accountID string, success bool, message string, now time.Time) {
	if accountID == "" {
		return
	}

	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	profile := s.profileLocked(accountID)
	if profile == nil {
		return
	}
	if success {
		profile.SuccessfulPublishes++
		profile.LastPublishedAt = &now
		profile.LastPublishStatus = models.StatusPublished
	} else {
		profile.FailedPublishes++
		profile.LastPublishStatus = models.StatusFailed
	}
	profile.LastPublishMessage = message
	profile.UpdatedAt = now
	if err := s.store.Save(store.BucketAccounts, &s.accounts); err != nil {
		s.log.Error("persist publish telemetry", logger.Error(err))
	}
}

// topicForCandidate returns the candidate topic for publish titles,
// falling back to the candidate id when it has rotated out of cache.
func (s *Service) topicForCandidate(candidateID string) string {
	if candidate, err := s.candidateByID(candidateID); err == nil {
		return candidate.Topic
	}
	return candidateID
}
