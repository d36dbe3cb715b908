package handlers

import (
	"net/http"
	"time"

	"linkdeck/internal/models"
	"linkdeck/internal/service"
	"linkdeck/internal/view"
)

// ProfileHandler handles managed-profile and working-view requests
type ProfileHandler struct {
	profileService     *service.ProfileService
	invitationService  *service.InvitationService
	entitlementService *service.EntitlementService
	planService        *service.PlanService
	viewDelegate       *view.Delegate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService, invitationService *service.InvitationService, entitlementService *service.EntitlementService, planService *service.PlanService, viewDelegate *view.Delegate) *ProfileHandler {
	return &ProfileHandler{
		profileService:     profileService,
		invitationService:  invitationService,
		entitlementService: entitlementService,
		planService:        planService,
		viewDelegate:       viewDelegate,
	}
}

// List handles GET /api/profiles: the admin's managed set with each
// profile's link status.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	managed, err := h.profileService.ManagedProfiles(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(managed))
	for _, mp := range managed {
		payload = append(payload, managedProfilePayload(mp))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"profiles": payload})
}

// Create handles POST /api/profiles: creates a provisional profile and,
// when an email is given, issues its invitation in the same request.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Profile creation is checked against a fresh plan read, never the
	// cached one: a plan change inside the cache TTL must apply here.
	h.planService.Invalidate(user.ID)

	allowed, err := h.entitlementService.CanCreate(user.ID, models.KindProfiles, "")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !allowed {
		respondError(w, http.StatusForbidden, "plan limit reached for profiles")
		return
	}

	profile, err := h.profileService.CreateProvisionalProfile(user.ID, req.Username, req.DisplayName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var inv *models.Invitation
	if req.Email != "" {
		inv, err = h.invitationService.Issue(r.Context(), user.ID, profile.ID, req.Email)
		if err != nil {
			respondServiceError(w, err)
			return
		}
	}

	payload := map[string]interface{}{
		"profile": profilePayload(*profile),
	}
	if inv != nil {
		payload["invitation"] = invitationPayload(inv)
	}
	respondJSON(w, http.StatusCreated, payload)
}

// Delete handles DELETE /api/profiles/{id} for provisional profiles
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	profileID := r.PathValue("id")

	if err := h.profileService.DeleteProfile(user.ID, profileID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Invite handles POST /api/profiles/{id}/invitations: issues the
// profile's invitation when none is live.
func (h *ProfileHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	profileID := r.PathValue("id")

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invitationService.Issue(r.Context(), user.ID, profileID, req.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"invitation": invitationPayload(inv)})
}

// Renew handles POST /api/profiles/{id}/invitations/renew
func (h *ProfileHandler) Renew(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	profileID := r.PathValue("id")

	inv, err := h.invitationService.Renew(r.Context(), user.ID, profileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"invitation": invitationPayload(inv)})
}

// Unlink handles POST /api/profiles/{id}/invitations/unlink. Revoking a
// linked owner's access is destructive, so the request must carry an
// explicit confirmation.
func (h *ProfileHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	profileID := r.PathValue("id")

	var req struct {
		Email   string `json:"email"`
		Confirm bool   `json:"confirm"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Confirm {
		respondError(w, http.StatusBadRequest, "unlink requires confirmation")
		return
	}

	inv, err := h.invitationService.Unlink(r.Context(), user.ID, profileID, req.Email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"invitation": invitationPayload(inv)})
}

// GetView handles GET /api/view: the session's resolved working view
func (h *ProfileHandler) GetView(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	sessionID := GetSessionIDFromContext(r.Context())

	subject, err := h.resolveView(user.ID, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewPayload(subject))
}

// SetView handles PUT /api/view: switches the session's working view
func (h *ProfileHandler) SetView(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	sessionID := GetSessionIDFromContext(r.Context())

	var req struct {
		Mode      string `json:"mode"`
		ProfileID string `json:"profile_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := view.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch mode {
	case view.ModeManager:
		plan, err := h.planService.PlanFor(user.ID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if plan == nil || !plan.AllowAdminMode {
			respondError(w, http.StatusForbidden, "plan does not allow manager mode")
			return
		}
	case view.ModeDelegated:
		managed, err := h.profileService.IsManaged(user.ID, req.ProfileID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if !managed || req.ProfileID == user.ID {
			respondError(w, http.StatusForbidden, "profile is not in your managed set")
			return
		}
	}

	subject := view.Subject{Mode: mode}
	if mode == view.ModeDelegated {
		subject.ProfileID = req.ProfileID
	}
	if err := h.viewDelegate.Set(sessionID, subject); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, viewPayload(subject))
}

// resolveView resolves the session's working view, consulting the plan
// for the first-use default.
func (h *ProfileHandler) resolveView(userID, sessionID string) (view.Subject, error) {
	plan, err := h.planService.PlanFor(userID)
	if err != nil {
		return view.Subject{}, err
	}
	allowManagerMode := plan != nil && plan.AllowAdminMode
	return h.viewDelegate.Resolve(sessionID, allowManagerMode), nil
}

func viewPayload(subject view.Subject) map[string]interface{} {
	return map[string]interface{}{
		"mode":       subject.Mode.String(),
		"profile_id": subject.ProfileID,
	}
}

func profilePayload(profile models.Profile) map[string]interface{} {
	return map[string]interface{}{
		"id":           profile.ID,
		"username":     profile.Username,
		"display_name": profile.DisplayName,
		"is_activated": profile.IsActivated,
		"created_at":   profile.CreatedAt.Format(time.RFC3339),
	}
}

func managedProfilePayload(mp models.ManagedProfile) map[string]interface{} {
	payload := profilePayload(mp.Profile)
	payload["link_status"] = string(mp.LinkStatus)
	return payload
}

func invitationPayload(inv *models.Invitation) map[string]interface{} {
	return map[string]interface{}{
		"id":         inv.ID,
		"token":      inv.Token,
		"profile_id": inv.ProfileID,
		"email":      inv.Email,
		"status":     inv.Status,
		"expires_at": inv.ExpiresAt.Format(time.RFC3339),
	}
}
