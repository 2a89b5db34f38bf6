package studio_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/brand-studio/internal/connectors"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/studio"
)

func TestEnqueueDraftCreatesQueuedItem(t *testing.T) {
	e := newEnv(t)
	profile := createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})

	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	assert.Equal(t, models.StatusQueued, item.Status)
	assert.Equal(t, bundle.DraftID, item.DraftID)
	assert.Equal(t, profile.ProfileID, item.AccountID)
	assert.Equal(t, "Main X", item.AccountDisplayName)
	assert.NotEmpty(t, item.ItemID)
}

func TestEnqueueDraftUnknownDraft(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelX, "Main X")

	_, err := e.service.EnqueueDraft("tester", "draft-nope", models.QueueDraftRequest{
		TargetChannel:  models.ChannelX,
		TargetLanguage: models.LangEN,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEnqueueDraftMissingVariant(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelBlog, "Blog")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})

	_, err := e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:  models.ChannelBlog,
		TargetLanguage: models.LangEN,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEnqueueDraftWithoutEnabledProfile(t *testing.T) {
	e := newEnv(t)
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})

	_, err := e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:  models.ChannelX,
		TargetLanguage: models.LangEN,
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestEnqueueDraftAccountResolutionOrder(t *testing.T) {
	e := newEnv(t)
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})

	first := createProfile(t, e, models.ChannelX, "First")
	second, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Second",
		AuthMode:            models.AuthNone,
		IsDefault:           true,
	})
	require.NoError(t, err)

	// Channel default wins over first-enabled.
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)
	assert.Equal(t, second.ProfileID, item.AccountID)

	// Strategy default outranks the channel default.
	defaults := map[string]string{models.ChannelX: first.ProfileID}
	_, err = e.service.SaveConfig("tester", models.ConfigSaveRequest{
		StrategyUpdateRequest: models.StrategyUpdateRequest{DefaultAccounts: &defaults},
	})
	require.NoError(t, err)

	item = enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)
	assert.Equal(t, first.ProfileID, item.AccountID)

	// An explicit account_id outranks everything.
	item, err = e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:  models.ChannelX,
		TargetLanguage: models.LangEN,
		AccountID:      second.ProfileID,
	})
	require.NoError(t, err)
	assert.Equal(t, second.ProfileID, item.AccountID)
}

func TestEnqueueDraftExplicitAccountValidation(t *testing.T) {
	e := newEnv(t)
	xProfile := createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX, models.ChannelBlog}, []string{models.LangEN})

	_, err := e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:  models.ChannelX,
		TargetLanguage: models.LangEN,
		AccountID:      "account-nope",
	})
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Profile on a different channel than the target.
	_, err = e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:  models.ChannelBlog,
		TargetLanguage: models.LangEN,
		AccountID:      xProfile.ProfileID,
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	enabled := false
	_, err = e.service.UpdateProfile("tester", xProfile.ProfileID, models.ProfileUpdateRequest{
		Enabled: &enabled,
	})
	require.NoError(t, err)
	_, err = e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:  models.ChannelX,
		TargetLanguage: models.LangEN,
		AccountID:      xProfile.ProfileID,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestPublishRequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	_, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, false)
	assert.ErrorIs(t, err, models.ErrConfirmRequired)

	// The gate must leave the item untouched.
	items := e.service.QueueItems(studio.QueueFilter{})
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusQueued, items[0].Status)
}

func TestPublishSuccessTransitionsToPublished(t *testing.T) {
	e := newEnv(t)
	profile := createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	result, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.StatusPublished, result.Status)
	assert.Equal(t, "ext-"+item.ItemID, result.ExternalID)
	assert.NotEmpty(t, result.URL)
	require.NotNil(t, result.PublishedAt)
	require.NotNil(t, result.Item)
	assert.Equal(t, models.StatusPublished, result.Item.Status)

	// Publish telemetry lands on the profile.
	updated, err := e.service.Profile(profile.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.SuccessfulPublishes)
	assert.Equal(t, models.StatusPublished, updated.LastPublishStatus)
}

func TestPublishTerminalItemConflicts(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	_, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err)

	_, err = e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestPublishUnknownItem(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.PublishQueueItem(context.Background(), "tester", "queue-nope", true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPublishConnectorFailureMarksFailedAndAllowsRetry(t *testing.T) {
	e := newEnv(t, withFailingChannel(models.ChannelX))
	profile := createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	result, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err, "a connector failure is a result, not a request error")
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "upstream rejected")

	updated, err := e.service.Profile(profile.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.FailedPublishes)

	// Failed items stay retryable; swap in a working connector.
	e.registry.Register(models.ChannelX, connectors.NewStubConnector())
	retried, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err)
	assert.True(t, retried.Success)
	assert.Equal(t, models.StatusPublished, retried.Status)
}

func TestPublishSurvivesDraftRefresh(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelX, "Main X")

	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	refreshed, err := e.service.GenerateDraft(context.Background(), "tester", models.DraftGenerateRequest{
		CandidateID: bundle.CandidateID,
		Channels:    []string{models.ChannelX},
		Languages:   []string{models.LangEN},
		Refresh:     true,
	})
	require.NoError(t, err)
	require.NotEqual(t, bundle.DraftID, refreshed.DraftID)

	// The queued item references the superseded bundle; it must still
	// publish its original content.
	result, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, result.Status)
	require.NotNil(t, result.Item)
	assert.Equal(t, bundle.DraftID, result.Item.DraftID)
}

func TestQueueItemsFilterAndOrder(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelX, "Main X")
	createProfile(t, e, models.ChannelBlog, "Blog")
	bundle := generateDraft(t, e, []string{models.ChannelX, models.ChannelBlog}, []string{models.LangEN})

	first := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)
	e.clock.Advance(time.Second)
	second := enqueue(t, e, bundle.DraftID, models.ChannelBlog, models.LangEN)

	all := e.service.QueueItems(studio.QueueFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, second.ItemID, all[0].ItemID, "newest first")
	assert.Equal(t, first.ItemID, all[1].ItemID)

	xOnly := e.service.QueueItems(studio.QueueFilter{Channel: models.ChannelX})
	require.Len(t, xOnly, 1)
	assert.Equal(t, first.ItemID, xOnly[0].ItemID)

	queued := e.service.QueueItems(studio.QueueFilter{Status: models.StatusQueued})
	assert.Len(t, queued, 2)
}

func TestPublishUsesPayloadOverride(t *testing.T) {
	e := newEnv(t)
	createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})

	item, err := e.service.EnqueueDraft("tester", bundle.DraftID, models.QueueDraftRequest{
		TargetChannel:   models.ChannelX,
		TargetLanguage:  models.LangEN,
		PayloadOverride: "Edited final copy.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Edited final copy.", item.PayloadOverride)

	result, err := e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err)
	assert.True(t, result.Success)
}
