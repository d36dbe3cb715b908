package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"linkdeck/internal/handles"
	"linkdeck/internal/models"
	"linkdeck/internal/repository"
	"linkdeck/internal/validation"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileService handles profile business logic, including the managed
// set that drives entitlements and delegated editing.
type ProfileService struct {
	profileRepo    *repository.ProfileRepository
	invitationRepo *repository.InvitationRepository
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo *repository.ProfileRepository, invitationRepo *repository.InvitationRepository) *ProfileService {
	return &ProfileService{
		profileRepo:    profileRepo,
		invitationRepo: invitationRepo,
	}
}

// CreateProvisionalProfile creates a deactivated profile owned by the
// admin. It becomes usable by someone else only through an invitation.
func (s *ProfileService) CreateProvisionalProfile(adminID, username, displayName string) (*models.Profile, error) {
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	username, err := resolveUsername(s.profileRepo, username)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:               uuid.New().String(),
		Username:         username,
		DisplayName:      displayName,
		CreatedByAdminID: adminID,
		IsActivated:      false,
	}
	if err := s.profileRepo.Create(profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetProfile retrieves a profile by id
func (s *ProfileService) GetProfile(profileID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// ManagedProfileIDs builds the deduplicated set of profile ids the admin
// manages. The admin's own id is always first. Invitations are walked
// newest first so that per profile the most recent row decides how the
// profile is represented: an accepted invitation substitutes the linked
// profile for the provisional one.
func (s *ProfileService) ManagedProfileIDs(adminID string) ([]string, error) {
	ids := []string{adminID}
	seen := map[string]bool{adminID: true}
	decided := map[string]bool{}

	invitations, err := s.invitationRepo.ListByAdmin(adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	for _, inv := range invitations {
		if decided[inv.ProfileID] {
			continue
		}
		decided[inv.ProfileID] = true

		id := inv.ProfileID
		if inv.Status == models.InvitationAccepted && inv.LinkedProfileID != "" {
			id = inv.LinkedProfileID
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	profiles, err := s.profileRepo.ListByCreator(adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created profiles: %w", err)
	}
	for _, profile := range profiles {
		if decided[profile.ID] || seen[profile.ID] {
			continue
		}
		seen[profile.ID] = true
		ids = append(ids, profile.ID)
	}

	return ids, nil
}

// ManagedProfileCount counts the admin's managed set. Always at least 1.
func (s *ProfileService) ManagedProfileCount(adminID string) (int, error) {
	ids, err := s.ManagedProfileIDs(adminID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ManagedProfiles lists the managed set with each profile's link
// status, derived from its most recent invitation row: a live pending
// row reads pending, a stale pending or expired row reads expired, and
// everything else (accepted, cancelled, or never invited) reads linked.
func (s *ProfileService) ManagedProfiles(adminID string) ([]models.ManagedProfile, error) {
	ids, err := s.ManagedProfileIDs(adminID)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	managed := make([]models.ManagedProfile, 0, len(profiles))
	for _, profile := range profiles {
		status := models.LinkStatusLinked
		if profile.ID != adminID && !profile.IsActivated {
			latest, err := s.invitationRepo.LatestByProfile(profile.ID)
			if err != nil {
				return nil, err
			}
			status = linkStatus(latest, now)
		}
		managed = append(managed, models.ManagedProfile{Profile: profile, LinkStatus: status})
	}

	return managed, nil
}

// linkStatus derives a profile's display status from its most recent
// invitation row. A profile with no invitation history, or whose last
// round ended in acceptance or cancellation, has nothing actionable
// pending and reads linked.
func linkStatus(latest *models.Invitation, now time.Time) models.LinkStatus {
	switch {
	case latest == nil:
		return models.LinkStatusLinked
	case latest.IsLive(now):
		return models.LinkStatusPending
	case latest.Status == models.InvitationPending, latest.Status == models.InvitationExpired:
		return models.LinkStatusExpired
	default:
		return models.LinkStatusLinked
	}
}

// IsManaged reports whether the profile belongs to the admin's managed set
func (s *ProfileService) IsManaged(adminID, profileID string) (bool, error) {
	ids, err := s.ManagedProfileIDs(adminID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == profileID {
			return true, nil
		}
	}
	return false, nil
}

// DeleteProfile deletes a provisional profile the admin created. The
// admin's own profile and linked profiles of other users cannot be
// deleted this way.
func (s *ProfileService) DeleteProfile(adminID, profileID string) error {
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	if profile.CreatedByAdminID != adminID || profile.ID == adminID {
		return ErrPermissionDenied
	}
	if profile.IsActivated {
		return ErrPermissionDenied
	}

	if err := s.invitationRepo.CancelPending(profileID); err != nil {
		return err
	}
	return s.profileRepo.Delete(profileID)
}

// UpdateDisplayName changes a managed profile's display name
func (s *ProfileService) UpdateDisplayName(profileID, displayName string) error {
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return err
	}
	return s.profileRepo.UpdateDisplayName(profileID, displayName)
}

// resolveUsername validates a requested handle, or suggests an available
// one when the caller left it empty.
func resolveUsername(profileRepo *repository.ProfileRepository, requested string) (string, error) {
	if requested != "" {
		username := validation.NormalizeUsername(requested)
		if err := validation.ValidateUsername(username); err != nil {
			return "", err
		}

		reserved, err := profileRepo.IsUsernameReserved(username)
		if err != nil {
			return "", fmt.Errorf("failed to check reserved usernames: %w", err)
		}
		if reserved {
			return "", ErrUsernameReserved
		}

		exists, err := profileRepo.UsernameExists(username)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrUsernameTaken
		}
		return username, nil
	}

	for attempt := 0; attempt < 10; attempt++ {
		var candidate string
		var err error
		if attempt < 5 {
			candidate, err = handles.Suggest()
		} else {
			candidate, err = handles.SuggestWithSuffix()
		}
		if err != nil {
			return "", fmt.Errorf("failed to suggest username: %w", err)
		}

		exists, err := profileRepo.UsernameExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", errors.New("could not find an available username")
}
