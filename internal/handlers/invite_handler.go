package handlers

import (
	"log"
	"net/http"
	"time"

	"linkdeck/internal/security"
	"linkdeck/internal/service"
)

// InviteHandler handles the public invitation acceptance flow
type InviteHandler struct {
	invitationService *service.InvitationService
	profileService    *service.ProfileService
	authService       *service.AuthService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(invitationService *service.InvitationService, profileService *service.ProfileService, authService *service.AuthService) *InviteHandler {
	return &InviteHandler{
		invitationService: invitationService,
		profileService:    profileService,
		authService:       authService,
	}
}

// Show handles GET /invite/{token}: resolves the token so the frontend
// can render what is being accepted.
func (h *InviteHandler) Show(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitationService.ValidateToken(r.PathValue("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	profile, err := h.profileService.GetProfile(inv.ProfileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile": map[string]interface{}{
			"username":     profile.Username,
			"display_name": profile.DisplayName,
		},
		"expires_at": inv.ExpiresAt.Format(time.RFC3339),
	})
}

// Accept handles POST /invite/{token}/accept. An anonymous caller
// supplies credentials and gets a brand-new identity keyed to the
// profile; a logged-in caller links the profile to their existing
// account instead. Either way the invitation is consumed atomically,
// so of two racing accepts exactly one wins.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	inv, err := h.invitationService.ValidateToken(token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Merge path: a valid session accepts with its own account.
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if user, err := h.authService.ValidateSession(cookie.Value); err == nil {
			ok, err := h.invitationService.Accept(token, user.ID)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			if !ok {
				respondError(w, http.StatusConflict, "invitation is no longer available")
				return
			}
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"ok":         true,
				"profile_id": inv.ProfileID,
			})
			return
		}
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The new identity shares the profile's id, so identity and profile
	// stay one key from here on.
	user, err := h.authService.CreateIdentity(inv.ProfileID, req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	ok, err := h.invitationService.Accept(token, inv.ProfileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !ok {
		// Lost the race: roll the orphaned identity back best-effort.
		if err := h.authService.DeleteIdentity(user.ID); err != nil {
			log.Printf("Failed to remove orphaned identity %s: %v", user.ID, err)
		}
		respondError(w, http.StatusConflict, "invitation is no longer available")
		return
	}

	session, err := h.authService.StartSession(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"ok":         true,
		"profile_id": inv.ProfileID,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}
