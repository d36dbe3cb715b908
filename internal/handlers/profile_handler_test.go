package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"linkdeck/internal/database"
	"linkdeck/internal/repository"
	"linkdeck/internal/service"
	"linkdeck/internal/view"
)

func newTestProfileHandler(t *testing.T) (*ProfileHandler, *service.AuthService, *service.PlanService, *database.DB) {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if err := db.SeedReservedUsernames(); err != nil {
		t.Fatalf("Failed to seed reserved usernames: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	planRepo := repository.NewPlanRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	authService := service.NewAuthService(userRepo, profileRepo, 24*time.Hour)
	profileService := service.NewProfileService(profileRepo, invitationRepo)
	invitationService := service.NewInvitationService(invitationRepo, profileRepo, userRepo, nil, 7*24*time.Hour)
	planService := service.NewPlanService(planRepo, 5*time.Minute)
	entitlementService := service.NewEntitlementService(planService, profileService, resourceRepo)

	handler := NewProfileHandler(profileService, invitationService, entitlementService, planService, view.NewDelegate())
	return handler, authService, planService, db
}

func TestCreateProfileChecksFreshPlan(t *testing.T) {
	handler, authService, planService, db := newTestProfileHandler(t)

	user, err := authService.Register("admin@example.com", "password123", "Test User", "admin-user")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// The free plan's single profile slot is taken by the user's own
	if err := planService.SetUserPlan(user.ID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	// Warm the cache with the free plan, then move the user to agency
	// behind the cache's back, the way an out-of-band billing change would
	if _, err := planService.PlanFor(user.ID); err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if _, err := db.Exec(`UPDATE user_plans SET plan_id = ? WHERE user_id = ?`, "agency", user.ID); err != nil {
		t.Fatalf("Failed to reassign plan: %v", err)
	}

	body := bytes.NewBufferString(`{"display_name": "Client One"}`)
	r := httptest.NewRequest("POST", "/api/profiles", body)
	r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
	w := httptest.NewRecorder()
	handler.Create(w, r)

	// The quota check must see the agency limits, not the cached free plan
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 under the reassigned plan, got %d: %s", w.Code, w.Body.String())
	}
}
