package studio_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/brand-studio/internal/connectors"
	"github.com/jonesrussell/brand-studio/internal/discovery"
	"github.com/jonesrussell/brand-studio/internal/generator"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
	"github.com/jonesrussell/brand-studio/internal/studio"
)

// fakeClock is a movable test clock.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.cur = c.cur.Add(d)
	c.mu.Unlock()
}

// fakeDiscovery counts calls and serves a configurable item set.
type fakeDiscovery struct {
	mu    sync.Mutex
	calls int
	items []discovery.Item
	err   error
}

func (d *fakeDiscovery) Discover(_ context.Context, _ string, _ []string) ([]discovery.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]discovery.Item(nil), d.items...), nil
}

func (d *fakeDiscovery) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// failingConnector always fails so queue items transition to failed.
type failingConnector struct{}

func (failingConnector) Publish(context.Context, connectors.PublishRequest) (*connectors.Result, error) {
	return nil, errors.New("upstream rejected the payload")
}

func (failingConnector) CheckCredentials(context.Context, models.CredentialProfile) error {
	return errors.New("credentials rejected")
}

// blockingMirror holds every forward until released, for asserting
// what stays responsive while the sink is slow.
type blockingMirror struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingMirror() *blockingMirror {
	return &blockingMirror{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (m *blockingMirror) Publish(models.AuditEntry) bool {
	m.entered <- struct{}{}
	<-m.release
	return true
}

// env bundles a service instance with its collaborators for assertions.
type env struct {
	service   *studio.Service
	clock     *fakeClock
	discovery *fakeDiscovery
	registry  *connectors.Registry
	store     *store.Store
	mirror    studio.AuditMirror
	dir       string
}

type envOption func(*env)

func withDiscoveryItems(items []discovery.Item) envOption {
	return func(e *env) { e.discovery.items = items }
}

func withFailingChannel(channel string) envOption {
	return func(e *env) { e.registry.Register(channel, failingConnector{}) }
}

func withMirror(mirror studio.AuditMirror) envOption {
	return func(e *env) { e.mirror = mirror }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	return newEnvAt(t, t.TempDir(), opts...)
}

// newEnvAt builds a service rooted at dir so restart tests can reopen
// the same state.
func newEnvAt(t *testing.T, dir string, opts ...envOption) *env {
	t.Helper()

	st, err := store.New(dir, logger.NewNopLogger())
	require.NoError(t, err)

	e := &env{
		clock:     newFakeClock(),
		discovery: &fakeDiscovery{items: discovery.StubItems()},
		registry:  connectors.NewRegistry(connectors.NewStubConnector()),
		store:     st,
		dir:       dir,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.service, err = studio.New(studio.Deps{
		Store:      st,
		Logger:     logger.NewNopLogger(),
		Discovery:  e.discovery,
		Connectors: e.registry,
		Mirror:     e.mirror,
		Now:        e.clock.Now,
	})
	require.NoError(t, err)
	return e
}

// newEnvWithGenerator builds a service with a text generator wired in.
func newEnvWithGenerator(t *testing.T, gen generator.TextGenerator) *env {
	t.Helper()

	dir := t.TempDir()
	st, err := store.New(dir, logger.NewNopLogger())
	require.NoError(t, err)

	e := &env{
		clock:     newFakeClock(),
		discovery: &fakeDiscovery{items: discovery.StubItems()},
		registry:  connectors.NewRegistry(connectors.NewStubConnector()),
		store:     st,
		dir:       dir,
	}
	e.service, err = studio.New(studio.Deps{
		Store:      st,
		Logger:     logger.NewNopLogger(),
		Discovery:  e.discovery,
		Generator:  gen,
		Connectors: e.registry,
		Now:        e.clock.Now,
	})
	require.NoError(t, err)
	return e
}

// createProfile registers an enabled primary profile for a channel.
func createProfile(t *testing.T, e *env, channel, name string) models.CredentialProfileView {
	t.Helper()
	profile, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             channel,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: name,
		AuthMode:            models.AuthNone,
	})
	require.NoError(t, err)
	return profile
}

// generateDraft produces a draft for the first stub candidate.
func generateDraft(t *testing.T, e *env, channels, languages []string) models.DraftBundle {
	t.Helper()
	candidates, _, err := e.service.Candidates(context.Background(), models.CandidateFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	bundle, err := e.service.GenerateDraft(context.Background(), "tester", models.DraftGenerateRequest{
		CandidateID: candidates[0].ID,
		Channels:    channels,
		Languages:   languages,
	})
	require.NoError(t, err)
	return bundle
}

// enqueue queues one variant of a draft.
func enqueue(t *testing.T, e *env, draftID, channel, language string) models.QueueItem {
	t.Helper()
	item, err := e.service.EnqueueDraft("tester", draftID, models.QueueDraftRequest{
		TargetChannel:  channel,
		TargetLanguage: language,
	})
	require.NoError(t, err)
	return item
}
