package handlers

import (
	"net/http"

	"linkdeck/internal/models"
	"linkdeck/internal/security"
	"linkdeck/internal/service"
	"linkdeck/internal/view"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	planService          *service.PlanService
	viewDelegate         *view.Delegate
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, planService *service.PlanService, viewDelegate *view.Delegate, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		planService:          planService,
		viewDelegate:         viewDelegate,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

// Register handles POST /api/register: creates the account and its
// self-owned profile and logs the new user straight in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name, req.Username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	session, err := h.authService.StartSession(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	h.respondAuthenticated(w, http.StatusCreated, user, session.ID)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	h.respondAuthenticated(w, http.StatusOK, user, session.ID)
}

// Logout handles POST /api/logout. Dropping the session also drops the
// session's working view, so the next login re-resolves the default.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionIDFromContext(r.Context())

	h.viewDelegate.Clear(sessionID)
	if err := h.authService.Logout(sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /api/me: the current user, their plan and working view
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	sessionID := GetSessionIDFromContext(r.Context())
	h.respondAuthenticated(w, http.StatusOK, user, sessionID)
}

// Plans handles GET /api/plans
func (h *AuthHandler) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planService.ListPlans()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(plans))
	for _, plan := range plans {
		payload = append(payload, map[string]interface{}{
			"id":               plan.ID,
			"name":             plan.Name,
			"limit_cards":      plan.LimitCards,
			"limit_forms":      plan.LimitForms,
			"limit_lists":      plan.LimitLists,
			"limit_profiles":   plan.LimitProfiles,
			"allow_admin_mode": plan.AllowAdminMode,
			"allow_video_bg":   plan.AllowVideoBG,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": payload})
}

// respondAuthenticated renders the session envelope used by login,
// register and /api/me: user, plan, resolved view and CSRF token.
func (h *AuthHandler) respondAuthenticated(w http.ResponseWriter, status int, user *models.User, sessionID string) {
	plan, err := h.planService.PlanFor(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	allowManagerMode := plan != nil && plan.AllowAdminMode
	subject := h.viewDelegate.Resolve(sessionID, allowManagerMode)

	csrfToken, err := h.csrf.TokenFor(sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload := map[string]interface{}{
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
		"view": map[string]interface{}{
			"mode":       subject.Mode.String(),
			"profile_id": subject.ProfileID,
		},
		"csrf_token": csrfToken,
	}
	if plan != nil {
		payload["plan"] = map[string]interface{}{
			"id":               plan.ID,
			"name":             plan.Name,
			"allow_admin_mode": plan.AllowAdminMode,
		}
	}

	respondJSON(w, status, payload)
}
