package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"

	"linkdeck/internal/service"
)

// BillingHandler receives plan-change webhooks from the billing system
type BillingHandler struct {
	planService *service.PlanService
	secret      string
}

// NewBillingHandler creates a new billing webhook handler
func NewBillingHandler(planService *service.PlanService, secret string) *BillingHandler {
	return &BillingHandler{
		planService: planService,
		secret:      secret,
	}
}

// Webhook handles POST /webhooks/billing. Authenticated by a shared
// secret header. Every applied change invalidates the user's cached
// plan, so new allowances take effect on the next entitlement check
// instead of after the cache TTL.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		respondError(w, http.StatusServiceUnavailable, "billing webhook not configured")
		return
	}

	provided := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		respondError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var req struct {
		Event  string `json:"event"`
		UserID string `json:"user_id"`
		PlanID string `json:"plan_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	switch req.Event {
	case "subscription.created", "subscription.updated":
		if req.PlanID == "" {
			respondError(w, http.StatusBadRequest, "plan_id is required")
			return
		}
		if err := h.planService.SetUserPlan(req.UserID, req.PlanID); err != nil {
			respondServiceError(w, err)
			return
		}
		log.Printf("Billing: user %s moved to plan %s", req.UserID, req.PlanID)
	case "subscription.cancelled":
		if err := h.planService.ClearUserPlan(req.UserID); err != nil {
			respondServiceError(w, err)
			return
		}
		log.Printf("Billing: user %s subscription cancelled", req.UserID)
	default:
		respondError(w, http.StatusBadRequest, "unknown event: "+req.Event)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
