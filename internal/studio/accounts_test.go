package studio_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/brand-studio/internal/models"
)

func TestCreateProfileStatusDerivation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name     string
		req      models.ProfileCreateRequest
		expected string
	}{
		{
			name: "api_key without secret is incomplete",
			req: models.ProfileCreateRequest{
				Channel:             models.ChannelX,
				Role:                models.RolePrimaryBrand,
				IdentityDisplayName: "No Secret",
				AuthMode:            models.AuthAPIKey,
			},
			expected: models.ProfileIncomplete,
		},
		{
			name: "api_key with secret is configured",
			req: models.ProfileCreateRequest{
				Channel:             models.ChannelX,
				Role:                models.RolePrimaryBrand,
				IdentityDisplayName: "With Secret",
				AuthMode:            models.AuthAPIKey,
				AuthSecret:          "sk-test-1234",
			},
			expected: models.ProfileConfigured,
		},
		{
			name: "username_only without handle is incomplete",
			req: models.ProfileCreateRequest{
				Channel:             models.ChannelBlog,
				Role:                models.RolePrimaryBrand,
				IdentityDisplayName: "No Handle",
				AuthMode:            models.AuthUsernameOnly,
			},
			expected: models.ProfileIncomplete,
		},
		{
			name: "github channel without target is incomplete",
			req: models.ProfileCreateRequest{
				Channel:             models.ChannelGitHub,
				Role:                models.RolePrimaryBrand,
				IdentityDisplayName: "No Repo",
				AuthMode:            models.AuthAPIKey,
				AuthSecret:          "ghp_secret",
			},
			expected: models.ProfileIncomplete,
		},
		{
			name: "github channel with target is configured",
			req: models.ProfileCreateRequest{
				Channel:             models.ChannelGitHub,
				Role:                models.RolePrimaryBrand,
				IdentityDisplayName: "With Repo",
				AuthMode:            models.AuthAPIKey,
				AuthSecret:          "ghp_secret",
				Target:              "acme/blog",
			},
			expected: models.ProfileConfigured,
		},
		{
			name: "explicitly disabled",
			req: models.ProfileCreateRequest{
				Channel:             models.ChannelBlog,
				Role:                models.RolePrimaryBrand,
				IdentityDisplayName: "Off",
				AuthMode:            models.AuthNone,
				Enabled:             boolPtr(false),
			},
			expected: models.ProfileDisabled,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			created, err := e.service.CreateProfile("tester", tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, created.Status)
		})
	}
}

func TestProfileSecretNeverExposed(t *testing.T) {
	e := newEnv(t)

	created, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelDevto,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Devto Main",
		AuthMode:            models.AuthAPIKey,
		AuthSecret:          "dtk-abcdef9876",
	})
	require.NoError(t, err)

	assert.Empty(t, created.AuthSecret)
	assert.True(t, created.HasSecret)
	assert.Equal(t, "...9876", created.SecretHint)

	listed := e.service.Profiles(models.ProfileFilter{Channel: models.ChannelDevto})
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].AuthSecret)
	assert.True(t, listed[0].HasSecret)
}

func TestSupportingProfileRequiresPrimaryBackRef(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RoleSupportingBrand,
		IdentityDisplayName: "Orphan",
		AuthMode:            models.AuthNone,
	})
	assert.ErrorIs(t, err, models.ErrValidation, "missing supports_profile_id")

	_, err = e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RoleSupportingBrand,
		IdentityDisplayName: "Dangling",
		AuthMode:            models.AuthNone,
		SupportsProfileID:   "account-nope",
	})
	assert.ErrorIs(t, err, models.ErrValidation, "dangling supports_profile_id")

	primary := createProfile(t, e, models.ChannelX, "Primary")
	blogPrimary := createProfile(t, e, models.ChannelBlog, "Blog Primary")

	_, err = e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RoleSupportingBrand,
		IdentityDisplayName: "Wrong Channel",
		AuthMode:            models.AuthNone,
		SupportsProfileID:   blogPrimary.ProfileID,
	})
	assert.ErrorIs(t, err, models.ErrValidation, "cross-channel back-ref")

	supporting, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RoleSupportingBrand,
		IdentityDisplayName: "Booster",
		AuthMode:            models.AuthNone,
		SupportsProfileID:   primary.ProfileID,
	})
	require.NoError(t, err)
	assert.Equal(t, primary.ProfileID, supporting.SupportsProfileID)
}

func TestSingleDefaultPerChannel(t *testing.T) {
	e := newEnv(t)

	first := createProfile(t, e, models.ChannelX, "First")
	second := createProfile(t, e, models.ChannelX, "Second")

	_, err := e.service.ActivateProfile("tester", first.ProfileID)
	require.NoError(t, err)
	_, err = e.service.ActivateProfile("tester", second.ProfileID)
	require.NoError(t, err)

	defaults := 0
	for _, p := range e.service.Profiles(models.ProfileFilter{Channel: models.ChannelX}) {
		if p.IsDefault {
			defaults++
			assert.Equal(t, second.ProfileID, p.ProfileID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestActivateDisabledProfileRejected(t *testing.T) {
	e := newEnv(t)

	created, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Off",
		AuthMode:            models.AuthNone,
		Enabled:             boolPtr(false),
	})
	require.NoError(t, err)

	_, err = e.service.ActivateProfile("tester", created.ProfileID)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateDisabledProfileCannotBeDefault(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Off",
		AuthMode:            models.AuthNone,
		Enabled:             boolPtr(false),
		IsDefault:           true,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, e.service.Profiles(models.ProfileFilter{}))
}

func TestUpdateProfileRecomputesStatus(t *testing.T) {
	e := newEnv(t)

	created, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Main",
		AuthMode:            models.AuthAPIKey,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileIncomplete, created.Status)

	secret := "sk-now-present"
	updated, err := e.service.UpdateProfile("tester", created.ProfileID, models.ProfileUpdateRequest{
		AuthSecret: &secret,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileConfigured, updated.Status)

	_, err = e.service.UpdateProfile("tester", created.ProfileID, models.ProfileUpdateRequest{})
	assert.ErrorIs(t, err, models.ErrValidation, "empty update")
}

func TestTestProfileLocalCheck(t *testing.T) {
	e := newEnv(t)

	created, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelBlog,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Blog Main",
		AuthMode:            models.AuthAPIKey,
	})
	require.NoError(t, err)

	result, err := e.service.TestProfile(context.Background(), "tester", created.ProfileID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ProfileInvalid, result.Status)
	assert.Contains(t, result.Message, "auth_secret")

	secret := "sk-present"
	_, err = e.service.UpdateProfile("tester", created.ProfileID, models.ProfileUpdateRequest{
		AuthSecret: &secret,
	})
	require.NoError(t, err)

	result, err = e.service.TestProfile(context.Background(), "tester", created.ProfileID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ProfileConfigured, result.Status)

	profile, err := e.service.Profile(created.ProfileID)
	require.NoError(t, err)
	require.NotNil(t, profile.LastTestedAt)
	assert.Equal(t, models.ProfileConfigured, profile.LastTestStatus)
}

func TestTestProfileDoesNotOverrideDisabled(t *testing.T) {
	e := newEnv(t)

	created, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelBlog,
		Role:                models.RolePrimaryBrand,
		IdentityDisplayName: "Off",
		AuthMode:            models.AuthNone,
		Enabled:             boolPtr(false),
	})
	require.NoError(t, err)

	_, err = e.service.TestProfile(context.Background(), "tester", created.ProfileID)
	require.NoError(t, err)

	profile, err := e.service.Profile(created.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileDisabled, profile.Status, "tests record telemetry but never flip disabled")
}

func TestDeleteProfileBlockedBySupportingBackRef(t *testing.T) {
	e := newEnv(t)

	primary := createProfile(t, e, models.ChannelX, "Primary")
	_, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RoleSupportingBrand,
		IdentityDisplayName: "Booster",
		AuthMode:            models.AuthNone,
		SupportsProfileID:   primary.ProfileID,
	})
	require.NoError(t, err)

	err = e.service.DeleteProfile("tester", primary.ProfileID)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestDeleteProfileBlockedByPendingQueueItem(t *testing.T) {
	e := newEnv(t)
	profile := createProfile(t, e, models.ChannelX, "Main X")
	bundle := generateDraft(t, e, []string{models.ChannelX}, []string{models.LangEN})
	item := enqueue(t, e, bundle.DraftID, models.ChannelX, models.LangEN)

	err := e.service.DeleteProfile("tester", profile.ProfileID)
	assert.ErrorIs(t, err, models.ErrConflict)

	// Publishing the item makes it terminal; deletion then proceeds.
	_, err = e.service.PublishQueueItem(context.Background(), "tester", item.ItemID, true)
	require.NoError(t, err)
	require.NoError(t, e.service.DeleteProfile("tester", profile.ProfileID))

	_, err = e.service.Profile(profile.ProfileID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProfilesOrdering(t *testing.T) {
	e := newEnv(t)

	createProfile(t, e, models.ChannelX, "Zeta")
	_, err := e.service.CreateProfile("tester", models.ProfileCreateRequest{
		Channel:             models.ChannelX,
		Role:                models.RoleSupportingBrand,
		IdentityDisplayName: "Alpha Support",
		AuthMode:            models.AuthNone,
		SupportsProfileID:   e.service.Profiles(models.ProfileFilter{})[0].ProfileID,
	})
	require.NoError(t, err)
	createProfile(t, e, models.ChannelBlog, "Blog Main")

	ordered := e.service.Profiles(models.ProfileFilter{})
	require.Len(t, ordered, 3)
	assert.Equal(t, models.ChannelBlog, ordered[0].Channel)
	assert.Equal(t, "Zeta", ordered[1].IdentityDisplayName, "primary before supporting within a channel")
	assert.Equal(t, "Alpha Support", ordered[2].IdentityDisplayName)
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
