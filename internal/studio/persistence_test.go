package studio_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/studio"
)

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	e := newEnvAt(t, dir)
	ctx := context.Background()

	profile := createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	for i := 0; i < 3; i++ {
		enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)
	}
	require.NoError(t, e.service.RefreshCandidates(ctx, "tester"))

	// Reopen the same data directory as a fresh process would.
	restarted := newEnvAt(t, dir)

	queued := restarted.service.QueueItems(studio.QueueFilter{})
	assert.Len(t, queued, 3)
	for _, item := range queued {
		assert.Equal(t, models.StatusQueued, item.Status)
		assert.Equal(t, profile.ProfileID, item.AccountID)
	}

	profiles := restarted.service.Profiles(models.ProfileFilter{})
	require.Len(t, profiles, 1)
	assert.Equal(t, profile.ProfileID, profiles[0].ProfileID)

	// accounts.create, draft.generate, 3x queue.create, sources.refresh
	audit := restarted.service.AuditEntries("", "", 0)
	assert.Len(t, audit, 6)

	// The queued variant stays publishable after restart.
	result, err := restarted.service.PublishQueueItem(ctx, "tester", queued[0].ItemID, true)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAuditEntriesFilteringAndOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)
	e.clock.Advance(time.Second)
	_, err := e.service.PublishQueueItem(ctx, "tester", item.ItemID, true)
	require.NoError(t, err)

	queueEntries := e.service.AuditEntries("queue", "", 0)
	require.Len(t, queueEntries, 2)
	assert.Equal(t, "queue.publish", queueEntries[0].Action, "newest first")
	assert.Equal(t, "queue.create", queueEntries[1].Action)

	published := e.service.AuditEntries("queue", models.StatusPublished, 0)
	require.Len(t, published, 1)
	assert.Equal(t, "tester", published[0].Actor)
	assert.NotEmpty(t, published[0].PayloadHash)
	assert.Equal(t, models.ChannelX+":"+item.ItemID, published[0].Details)

	exact := e.service.AuditEntries("queue.create", "", 0)
	assert.Len(t, exact, 1)

	limited := e.service.AuditEntries("", "", 2)
	assert.Len(t, limited, 2)
}
