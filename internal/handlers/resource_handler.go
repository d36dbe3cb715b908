package handlers

import (
	"net/http"
	"strconv"
	"time"

	"linkdeck/internal/models"
	"linkdeck/internal/repository"
	"linkdeck/internal/service"
	"linkdeck/internal/view"
)

// ResourceHandler handles the quota-limited resources: cards, forms and
// link lists. All operations run in the session's working view: self and
// delegated views act on one profile, manager view reads across the
// managed set but never creates.
type ResourceHandler struct {
	resourceRepo       *repository.ResourceRepository
	profileService     *service.ProfileService
	entitlementService *service.EntitlementService
	planService        *service.PlanService
	viewDelegate       *view.Delegate
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resourceRepo *repository.ResourceRepository, profileService *service.ProfileService, entitlementService *service.EntitlementService, planService *service.PlanService, viewDelegate *view.Delegate) *ResourceHandler {
	return &ResourceHandler{
		resourceRepo:       resourceRepo,
		profileService:     profileService,
		entitlementService: entitlementService,
		planService:        planService,
		viewDelegate:       viewDelegate,
	}
}

// actingProfile resolves which profile a write should land on, and in
// which view mode. Manager view returns an empty id: it has no target
// profile to write to.
func (h *ResourceHandler) actingProfile(r *http.Request) (string, view.Mode, error) {
	user := GetUserFromContext(r.Context())
	sessionID := GetSessionIDFromContext(r.Context())

	plan, err := h.planService.PlanFor(user.ID)
	if err != nil {
		return "", view.ModeSelf, err
	}
	allowManagerMode := plan != nil && plan.AllowAdminMode
	subject := h.viewDelegate.Resolve(sessionID, allowManagerMode)

	switch subject.Mode {
	case view.ModeDelegated:
		// The delegation target is re-validated on every request; a
		// profile unlinked mid-session must not stay writable.
		managed, err := h.profileService.IsManaged(user.ID, subject.ProfileID)
		if err != nil {
			return "", subject.Mode, err
		}
		if !managed {
			return "", subject.Mode, service.ErrPermissionDenied
		}
		return subject.ProfileID, subject.Mode, nil
	case view.ModeManager:
		return "", subject.Mode, nil
	default:
		return user.ID, subject.Mode, nil
	}
}

// ownerScope resolves which profiles a read or delete may touch
func (h *ResourceHandler) ownerScope(r *http.Request) ([]string, error) {
	user := GetUserFromContext(r.Context())

	acting, _, err := h.actingProfile(r)
	if err != nil {
		return nil, err
	}
	if acting != "" {
		return []string{acting}, nil
	}
	return h.profileService.ManagedProfileIDs(user.ID)
}

// checkCreate runs the shared preamble of every create: resolve the
// target profile, reject manager view, and charge the quota. A
// delegated create names its target profile so the quota check can cap
// that profile on its own; a self create charges the global scope.
func (h *ResourceHandler) checkCreate(w http.ResponseWriter, r *http.Request, kind models.ResourceKind) (string, bool) {
	user := GetUserFromContext(r.Context())

	acting, mode, err := h.actingProfile(r)
	if err != nil {
		respondServiceError(w, err)
		return "", false
	}
	if acting == "" {
		respondError(w, http.StatusForbidden, "manager view cannot create resources")
		return "", false
	}

	scope := ""
	if mode == view.ModeDelegated {
		scope = acting
	}
	allowed, err := h.entitlementService.CanCreate(user.ID, kind, scope)
	if err != nil {
		respondServiceError(w, err)
		return "", false
	}
	if !allowed {
		respondError(w, http.StatusForbidden, "plan limit reached for "+kind.String())
		return "", false
	}

	return acting, true
}

// ListCards handles GET /api/cards
func (h *ResourceHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	owners, err := h.ownerScope(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload := []map[string]interface{}{}
	for _, owner := range owners {
		cards, err := h.resourceRepo.ListCards(owner)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		for _, card := range cards {
			payload = append(payload, map[string]interface{}{
				"id":               card.ID,
				"owner_profile_id": card.OwnerProfileID,
				"title":            card.Title,
				"url":              card.URL,
				"position":         card.Position,
				"created_at":       card.CreatedAt.Format(time.RFC3339),
			})
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"cards": payload})
}

// CreateCard handles POST /api/cards
func (h *ResourceHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		URL      string `json:"url"`
		Position int    `json:"position"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.URL == "" {
		respondError(w, http.StatusBadRequest, "title and url are required")
		return
	}

	owner, ok := h.checkCreate(w, r, models.KindCards)
	if !ok {
		return
	}

	card := &models.Card{
		OwnerProfileID: owner,
		Title:          req.Title,
		URL:            req.URL,
		Position:       req.Position,
	}
	if err := h.resourceRepo.CreateCard(card); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":               card.ID,
		"owner_profile_id": card.OwnerProfileID,
		"title":            card.Title,
		"url":              card.URL,
		"position":         card.Position,
	})
}

// DeleteCard handles DELETE /api/cards/{id}
func (h *ResourceHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	h.deleteResource(w, r, models.KindCards)
}

// ListForms handles GET /api/forms
func (h *ResourceHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	owners, err := h.ownerScope(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload := []map[string]interface{}{}
	for _, owner := range owners {
		forms, err := h.resourceRepo.ListForms(owner)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		for _, form := range forms {
			payload = append(payload, map[string]interface{}{
				"id":               form.ID,
				"owner_profile_id": form.OwnerProfileID,
				"name":             form.Name,
				"schema":           form.SchemaJSON,
				"is_published":     form.IsPublished,
				"created_at":       form.CreatedAt.Format(time.RFC3339),
			})
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"forms": payload})
}

// CreateForm handles POST /api/forms
func (h *ResourceHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Schema    string `json:"schema"`
		Published bool   `json:"is_published"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	owner, ok := h.checkCreate(w, r, models.KindForms)
	if !ok {
		return
	}

	form := &models.FormConfig{
		OwnerProfileID: owner,
		Name:           req.Name,
		SchemaJSON:     req.Schema,
		IsPublished:    req.Published,
	}
	if err := h.resourceRepo.CreateForm(form); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":               form.ID,
		"owner_profile_id": form.OwnerProfileID,
		"name":             form.Name,
		"is_published":     form.IsPublished,
	})
}

// DeleteForm handles DELETE /api/forms/{id}
func (h *ResourceHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	h.deleteResource(w, r, models.KindForms)
}

// ListLists handles GET /api/lists
func (h *ResourceHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	owners, err := h.ownerScope(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payload := []map[string]interface{}{}
	for _, owner := range owners {
		lists, err := h.resourceRepo.ListLists(owner)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		for _, list := range lists {
			payload = append(payload, map[string]interface{}{
				"id":               list.ID,
				"owner_profile_id": list.OwnerProfileID,
				"title":            list.Title,
				"description":      list.Description,
				"created_at":       list.CreatedAt.Format(time.RFC3339),
			})
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"lists": payload})
}

// CreateList handles POST /api/lists
func (h *ResourceHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	owner, ok := h.checkCreate(w, r, models.KindLists)
	if !ok {
		return
	}

	list := &models.LinkList{
		OwnerProfileID: owner,
		Title:          req.Title,
		Description:    req.Description,
	}
	if err := h.resourceRepo.CreateList(list); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":               list.ID,
		"owner_profile_id": list.OwnerProfileID,
		"title":            list.Title,
		"description":      list.Description,
	})
}

// DeleteList handles DELETE /api/lists/{id}
func (h *ResourceHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	h.deleteResource(w, r, models.KindLists)
}

func (h *ResourceHandler) deleteResource(w http.ResponseWriter, r *http.Request, kind models.ResourceKind) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	owners, err := h.ownerScope(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	deleted, err := h.resourceRepo.Delete(kind, id, owners)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, kind.String()+" not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Entitlements handles GET /api/entitlements: per-kind usage, limits
// and remaining slots under the admin's current plan.
func (h *ResourceHandler) Entitlements(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	plan, err := h.planService.PlanFor(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	kinds := []models.ResourceKind{models.KindCards, models.KindForms, models.KindLists, models.KindProfiles}
	entitlements := make(map[string]interface{}, len(kinds))
	for _, kind := range kinds {
		used, err := h.entitlementService.Usage(user.ID, kind, "")
		if err != nil {
			respondServiceError(w, err)
			return
		}
		remaining, err := h.entitlementService.RemainingSlots(user.ID, kind, "")
		if err != nil {
			respondServiceError(w, err)
			return
		}

		limit := 0
		if plan != nil {
			limit = plan.LimitFor(kind)
		}
		entitlements[kind.String()] = map[string]interface{}{
			"used":       used,
			"limit":      limit,
			"remaining":  remaining,
			"can_create": plan != nil && used < limit,
		}
	}

	payload := map[string]interface{}{"entitlements": entitlements}
	if plan != nil {
		payload["plan"] = map[string]interface{}{"id": plan.ID, "name": plan.Name}
	}
	respondJSON(w, http.StatusOK, payload)
}
