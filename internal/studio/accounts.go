package studio

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
)

const actionAccountsTest = "accounts.test"

// Profiles lists credential profiles, masked, ordered by channel with
// primary-brand profiles first and display name as the tiebreaker.
func (s *Service) Profiles(filter models.ProfileFilter) []models.CredentialProfileView {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	out := make([]models.CredentialProfileView, 0, len(s.accounts.Profiles))
	for _, p := range s.accounts.Profiles {
		if filter.Channel != "" && p.Channel != filter.Channel {
			continue
		}
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p.Public())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		if a.Role != b.Role {
			return a.Role == models.RolePrimaryBrand
		}
		return strings.ToLower(a.IdentityDisplayName) < strings.ToLower(b.IdentityDisplayName)
	})
	return out
}

// Profile returns one masked profile.
func (s *Service) Profile(profileID string) (models.CredentialProfileView, error) {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	profile := s.profileLocked(profileID)
	if profile == nil {
		return models.CredentialProfileView{}, fmt.Errorf("%w: credential profile %s", models.ErrNotFound, profileID)
	}
	return profile.Public(), nil
}

// CreateProfile registers a credential profile for a channel. A
// supporting_brand profile must name an existing primary_brand profile
// on the same channel.
func (s *Service) CreateProfile(actor string, req models.ProfileCreateRequest) (models.CredentialProfileView, error) {
	now := s.now().UTC()

	s.accountsMu.Lock()

	if req.Role == models.RoleSupportingBrand {
		if err := s.checkSupportsRefLocked(req.SupportsProfileID, req.Channel); err != nil {
			s.accountsMu.Unlock()
			return models.CredentialProfileView{}, err
		}
	} else if req.SupportsProfileID != "" {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, fmt.Errorf(
			"%w: supports_profile_id is only valid for supporting_brand profiles", models.ErrValidation,
		)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	if req.IsDefault && !enabled {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, fmt.Errorf(
			"%w: a disabled profile cannot be the channel default", models.ErrValidation,
		)
	}
	profile := models.CredentialProfile{
		ProfileID:           newID("account"),
		Channel:             req.Channel,
		Role:                req.Role,
		IdentityDisplayName: req.IdentityDisplayName,
		IdentityHandle:      req.IdentityHandle,
		AuthMode:            req.AuthMode,
		AuthSecret:          req.AuthSecret,
		Target:              req.Target,
		Enabled:             enabled,
		IsDefault:           req.IsDefault,
		SupportsProfileID:   req.SupportsProfileID,
		Capabilities:        models.NormalizeList(req.Capabilities, true),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	profile.Status = profileStatus(profile)

	if profile.IsDefault {
		s.clearChannelDefaultLocked(profile.Channel)
	}
	s.accounts.Profiles = append(s.accounts.Profiles, profile)
	if err := s.store.Save(store.BucketAccounts, &s.accounts); err != nil {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, err
	}
	s.accountsMu.Unlock()

	s.appendAudit(actor, "accounts.create", "ok", profile.ProfileID, profile.Channel)
	return profile.Public(), nil
}

// UpdateProfile applies a partial update and recomputes the derived
// status.
func (s *Service) UpdateProfile(actor, profileID string, req models.ProfileUpdateRequest) (models.CredentialProfileView, error) {
	if err := req.Validate(); err != nil {
		return models.CredentialProfileView{}, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}
	now := s.now().UTC()

	s.accountsMu.Lock()

	profile := s.profileLocked(profileID)
	if profile == nil {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, fmt.Errorf("%w: credential profile %s", models.ErrNotFound, profileID)
	}

	if req.IdentityDisplayName != nil {
		profile.IdentityDisplayName = *req.IdentityDisplayName
	}
	if req.IdentityHandle != nil {
		profile.IdentityHandle = *req.IdentityHandle
	}
	if req.AuthSecret != nil {
		profile.AuthSecret = *req.AuthSecret
	}
	if req.Target != nil {
		profile.Target = *req.Target
	}
	if req.Enabled != nil {
		profile.Enabled = *req.Enabled
	}
	if req.Capabilities != nil {
		profile.Capabilities = models.NormalizeList(*req.Capabilities, true)
	}
	profile.Status = profileStatus(*profile)
	profile.UpdatedAt = now

	updated := *profile
	if err := s.store.Save(store.BucketAccounts, &s.accounts); err != nil {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, err
	}
	s.accountsMu.Unlock()

	s.appendAudit(actor, "accounts.update", "ok", profileID, updated.Channel)
	return updated.Public(), nil
}

// ActivateProfile marks a profile as its channel's default, clearing
// the flag from channel siblings.
func (s *Service) ActivateProfile(actor, profileID string) (models.CredentialProfileView, error) {
	now := s.now().UTC()

	s.accountsMu.Lock()

	profile := s.profileLocked(profileID)
	if profile == nil {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, fmt.Errorf("%w: credential profile %s", models.ErrNotFound, profileID)
	}
	if !profile.Enabled {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, fmt.Errorf(
			"%w: profile %s is disabled and cannot be the channel default", models.ErrValidation, profileID,
		)
	}

	s.clearChannelDefaultLocked(profile.Channel)
	profile.IsDefault = true
	profile.UpdatedAt = now

	updated := *profile
	if err := s.store.Save(store.BucketAccounts, &s.accounts); err != nil {
		s.accountsMu.Unlock()
		return models.CredentialProfileView{}, err
	}
	s.accountsMu.Unlock()

	s.appendAudit(actor, "accounts.activate", "ok", profileID, updated.Channel)
	return updated.Public(), nil
}

// TestProfile checks a profile's credentials. Channels with a live
// connector get a real check; everything else is validated locally.
// Test outcomes flip status between configured and invalid only;
// disabled stays operator-controlled.
func (s *Service) TestProfile(ctx context.Context, actor, profileID string) (models.ProfileTestResult, error) {
	s.accountsMu.Lock()
	profile := s.profileLocked(profileID)
	if profile == nil {
		s.accountsMu.Unlock()
		return models.ProfileTestResult{}, fmt.Errorf("%w: credential profile %s", models.ErrNotFound, profileID)
	}
	snapshot := *profile
	s.accountsMu.Unlock()

	var testErr error
	if connector, ok := s.connectors.Lookup(snapshot.Channel); ok {
		testErr = connector.CheckCredentials(ctx, snapshot)
	} else {
		testErr = localCredentialCheck(snapshot)
	}

	now := s.now().UTC()
	result := models.ProfileTestResult{
		ProfileID: profileID,
		Success:   testErr == nil,
		TestedAt:  now,
	}
	if testErr == nil {
		result.Status = models.ProfileConfigured
		result.Message = "credentials verified"
	} else {
		result.Status = models.ProfileInvalid
		result.Message = testErr.Error()
	}

	s.accountsMu.Lock()
	if profile := s.profileLocked(profileID); profile != nil {
		profile.LastTestedAt = &now
		profile.LastTestStatus = result.Status
		profile.LastTestMessage = result.Message
		if profile.Status == models.ProfileConfigured || profile.Status == models.ProfileInvalid {
			profile.Status = result.Status
		}
		profile.UpdatedAt = now
		if err := s.store.Save(store.BucketAccounts, &s.accounts); err != nil {
			s.log.Error("persist credential test result", logger.Error(err))
		}
	}
	s.accountsMu.Unlock()

	status := "ok"
	if !result.Success {
		status = "error"
	}
	s.appendAudit(actor, actionAccountsTest, status, profileID, result.Message)
	return result, nil
}

// DeleteProfile removes a profile. Deletion is blocked while other
// profiles name it via supports_profile_id or a non-terminal queue item
// still references it.
func (s *Service) DeleteProfile(actor, profileID string) error {
	s.runtimeMu.Lock()
	for i := range s.runtime.Queue {
		item := &s.runtime.Queue[i]
		if item.AccountID == profileID && !models.TerminalForPublish(item.Status) {
			s.runtimeMu.Unlock()
			return fmt.Errorf(
				"%w: queue item %s still references profile %s", models.ErrConflict, item.ItemID, profileID,
			)
		}
	}

	s.accountsMu.Lock()

	idx := -1
	for i := range s.accounts.Profiles {
		if s.accounts.Profiles[i].ProfileID == profileID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.accountsMu.Unlock()
		s.runtimeMu.Unlock()
		return fmt.Errorf("%w: credential profile %s", models.ErrNotFound, profileID)
	}
	for _, p := range s.accounts.Profiles {
		if p.SupportsProfileID == profileID {
			s.accountsMu.Unlock()
			s.runtimeMu.Unlock()
			return fmt.Errorf(
				"%w: profile %s is still supported by %s", models.ErrConflict, profileID, p.ProfileID,
			)
		}
	}

	channel := s.accounts.Profiles[idx].Channel
	s.accounts.Profiles = append(s.accounts.Profiles[:idx], s.accounts.Profiles[idx+1:]...)
	if err := s.store.Save(store.BucketAccounts, &s.accounts); err != nil {
		s.accountsMu.Unlock()
		s.runtimeMu.Unlock()
		return err
	}
	s.accountsMu.Unlock()
	s.runtimeMu.Unlock()

	s.appendAudit(actor, "accounts.delete", "ok", profileID, channel)
	return nil
}

// profileLocked finds a profile by id. Callers hold accountsMu.
func (s *Service) profileLocked(profileID string) *models.CredentialProfile {
	for i := range s.accounts.Profiles {
		if s.accounts.Profiles[i].ProfileID == profileID {
			return &s.accounts.Profiles[i]
		}
	}
	return nil
}

func (s *Service) clearChannelDefaultLocked(channel string) {
	for i := range s.accounts.Profiles {
		if s.accounts.Profiles[i].Channel == channel {
			s.accounts.Profiles[i].IsDefault = false
		}
	}
}

// checkSupportsRefLocked validates a supporting_brand back-reference:
// it must name an existing primary_brand profile on the same channel.
func (s *Service) checkSupportsRefLocked(supportsID, channel string) error {
	if supportsID == "" {
		return fmt.Errorf("%w: supporting_brand profiles require supports_profile_id", models.ErrValidation)
	}
	supported := s.profileLocked(supportsID)
	if supported == nil {
		return fmt.Errorf("%w: supports_profile_id %s does not exist", models.ErrValidation, supportsID)
	}
	if supported.Role != models.RolePrimaryBrand {
		return fmt.Errorf("%w: supports_profile_id must name a primary_brand profile", models.ErrValidation)
	}
	if supported.Channel != channel {
		return fmt.Errorf("%w: supports_profile_id must name a profile on the same channel", models.ErrValidation)
	}
	return nil
}

// profileStatus derives the stored status from operator state and
// credential completeness.
func profileStatus(p models.CredentialProfile) string {
	if !p.Enabled {
		return models.ProfileDisabled
	}
	if missing := missingCredentialField(p); missing != "" {
		return models.ProfileIncomplete
	}
	return models.ProfileConfigured
}

// localCredentialCheck is the offline credential test for channels
// without a live connector.
func localCredentialCheck(p models.CredentialProfile) error {
	if missing := missingCredentialField(p); missing != "" {
		return fmt.Errorf("missing %s", missing)
	}
	return nil
}

func missingCredentialField(p models.CredentialProfile) string {
	switch p.AuthMode {
	case models.AuthAPIKey, models.AuthOAuth, models.AuthLoginPassword:
		if p.AuthSecret == "" {
			return "auth_secret"
		}
	case models.AuthUsernameOnly:
		if p.IdentityHandle == "" {
			return "identity_handle"
		}
	}
	if p.Channel == models.ChannelGitHub && p.Target == "" {
		return "target"
	}
	return ""
}
