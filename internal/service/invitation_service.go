package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"linkdeck/internal/models"
	"linkdeck/internal/repository"
	"linkdeck/internal/security"
	"linkdeck/internal/validation"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrDuplicateActive    = errors.New("profile already has a live invitation")
	ErrPermissionDenied   = errors.New("permission denied")
)

// invitationTokenBytes is the entropy of the opaque acceptance token
const invitationTokenBytes = 16

// InvitationService handles the invitation lifecycle: issuing, token
// validation, acceptance, renewal and unlinking.
type InvitationService struct {
	invitationRepo *repository.InvitationRepository
	profileRepo    *repository.ProfileRepository
	userRepo       *repository.UserRepository
	emailService   *EmailService
	ttl            time.Duration
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitationRepo *repository.InvitationRepository, profileRepo *repository.ProfileRepository, userRepo *repository.UserRepository, emailService *EmailService, ttl time.Duration) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		profileRepo:    profileRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		ttl:            ttl,
	}
}

// Issue creates a live invitation for a provisional profile the admin
// owns. A profile can hold at most one live invitation at a time.
func (s *InvitationService) Issue(ctx context.Context, adminID, profileID, email string) (*models.Invitation, error) {
	profile, err := s.ownedProfile(adminID, profileID)
	if err != nil {
		return nil, err
	}

	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	existing, err := s.invitationRepo.GetLiveByProfile(profileID, time.Now())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateActive
	}

	inv, err := s.newInvitation(adminID, profileID, email)
	if err != nil {
		return nil, err
	}
	if err := s.invitationRepo.Create(inv); err != nil {
		return nil, err
	}

	s.notifyInvitee(ctx, adminID, profile, inv)
	return inv, nil
}

// ValidateToken resolves an acceptance token to its invitation. The
// stored status is never trusted on its own: a pending row past its
// expiry is reported expired even before the housekeeping sweep has
// caught up with it.
func (s *InvitationService) ValidateToken(token string) (*models.Invitation, error) {
	inv, err := s.invitationRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}

	if inv.IsLive(time.Now()) {
		return inv, nil
	}

	// Every dead row reads the same from the outside: the link no longer
	// works, whether it expired, was superseded, or was already used.
	// "Already used" is Accept's false result, not a token state.
	return nil, ErrInvitationExpired
}

// Accept consumes the invitation and binds the accepting identity to
// the profile. Returns false without error when the invitation was
// lost to a race, used or expired between validation and acceptance.
func (s *InvitationService) Accept(token, linkedProfileID string) (bool, error) {
	return s.invitationRepo.Accept(token, linkedProfileID, time.Now())
}

// Renew replaces the profile's pending invitation with a fresh one
// carrying a new token and a full TTL. The previous token becomes
// unusable the moment the new row exists.
func (s *InvitationService) Renew(ctx context.Context, adminID, profileID string) (*models.Invitation, error) {
	profile, err := s.ownedProfile(adminID, profileID)
	if err != nil {
		return nil, err
	}
	if profile.IsActivated {
		return nil, ErrPermissionDenied
	}

	email := ""
	if latest, err := s.invitationRepo.LatestByProfile(profileID); err != nil {
		return nil, err
	} else if latest != nil {
		email = latest.Email
	}

	inv, err := s.newInvitation(adminID, profileID, email)
	if err != nil {
		return nil, err
	}
	if err := s.invitationRepo.Supersede(profileID, inv, false); err != nil {
		return nil, err
	}

	s.notifyInvitee(ctx, adminID, profile, inv)
	return inv, nil
}

// Unlink revokes the current owner's access to an activated profile and
// restarts the invitation lifecycle: the profile is deactivated, any
// pending invitation cancelled, and a fresh invitation issued, all in
// one transaction. The content stays with the profile.
func (s *InvitationService) Unlink(ctx context.Context, adminID, profileID, email string) (*models.Invitation, error) {
	profile, err := s.ownedProfile(adminID, profileID)
	if err != nil {
		return nil, err
	}

	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	latest, err := s.invitationRepo.LatestByProfile(profileID)
	if err != nil {
		return nil, err
	}

	inv, err := s.newInvitation(adminID, profileID, email)
	if err != nil {
		return nil, err
	}
	if err := s.invitationRepo.Supersede(profileID, inv, true); err != nil {
		return nil, err
	}

	// Revoke the displaced owner's login, but only when the identity was
	// created for this profile. An owner who accepted with a pre-existing
	// account keeps the account and merely loses the profile.
	if latest != nil && latest.Status == models.InvitationAccepted && latest.LinkedProfileID == profileID {
		if user, err := s.userRepo.GetUserByID(profileID); err != nil {
			log.Printf("Unlink: failed to look up displaced identity for profile %s: %v", profileID, err)
		} else if user != nil {
			if err := s.userRepo.DeleteUser(user.ID); err != nil {
				log.Printf("Unlink: failed to delete displaced identity %s: %v", user.ID, err)
			} else if s.emailService != nil {
				if err := s.emailService.SendUnlinkedEmail(ctx, user.Email, profile.DisplayName); err != nil {
					log.Printf("Unlink: failed to send notice to %s: %v", user.Email, err)
				}
			}
		}
	}

	s.notifyInvitee(ctx, adminID, profile, inv)
	return inv, nil
}

// ListByAdmin returns the admin's invitations, newest first
func (s *InvitationService) ListByAdmin(adminID string) ([]models.Invitation, error) {
	return s.invitationRepo.ListByAdmin(adminID)
}

// ExpireStale flips stale pending rows to expired. Run periodically.
func (s *InvitationService) ExpireStale() (int64, error) {
	return s.invitationRepo.MarkStaleExpired(time.Now())
}

func (s *InvitationService) newInvitation(adminID, profileID, email string) (*models.Invitation, error) {
	token, err := security.GenerateToken(invitationTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	return &models.Invitation{
		ID:               uuid.New().String(),
		Token:            token,
		InvitedByAdminID: adminID,
		ProfileID:        profileID,
		Email:            email,
		Status:           models.InvitationPending,
		ExpiresAt:        time.Now().Add(s.ttl),
	}, nil
}

// ownedProfile loads a profile and checks the admin created it. The
// admin's own profile is never a valid invitation target.
func (s *InvitationService) ownedProfile(adminID, profileID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if profile.CreatedByAdminID != adminID || profile.ID == adminID {
		return nil, ErrPermissionDenied
	}
	return profile, nil
}

// notifyInvitee sends the invitation email best-effort; a delivery
// failure never rolls back the invitation.
func (s *InvitationService) notifyInvitee(ctx context.Context, adminID string, profile *models.Profile, inv *models.Invitation) {
	if s.emailService == nil || inv.Email == "" {
		return
	}

	adminName := "A LinkDeck user"
	if admin, err := s.userRepo.GetUserByID(adminID); err == nil && admin != nil {
		adminName = admin.Name
	}

	if err := s.emailService.SendInvitationEmail(ctx, inv.Email, adminName, profile.DisplayName, inv.Token); err != nil {
		log.Printf("Failed to send invitation email to %s: %v", inv.Email, err)
	}
}
