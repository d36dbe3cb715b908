package service

import (
	"testing"

	"linkdeck/internal/models"
)

func TestEntitlementsWithoutPlan(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	ok, err := env.entitlements.CanCreate(adminID, models.KindCards, "")
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if ok {
		t.Error("A user without a plan must not create anything")
	}

	remaining, err := env.entitlements.RemainingSlots(adminID, models.KindCards, "")
	if err != nil {
		t.Fatalf("RemainingSlots failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("Expected 0 remaining slots without a plan, got %d", remaining)
	}
}

func TestEntitlementsEnforceLimit(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	// The free plan allows a single form
	if err := env.plans.SetUserPlan(adminID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	ok, err := env.entitlements.CanCreate(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected form creation to be allowed at zero usage")
	}

	form := &models.FormConfig{OwnerProfileID: adminID, Name: "Contact"}
	if err := env.resourceRepo.CreateForm(form); err != nil {
		t.Fatalf("CreateForm failed: %v", err)
	}

	ok, err = env.entitlements.CanCreate(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if ok {
		t.Error("Form creation should be blocked at the limit")
	}

	remaining, err := env.entitlements.RemainingSlots(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("RemainingSlots failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("Expected 0 remaining slots, got %d", remaining)
	}
}

func TestUsageCountsAcrossManagedSet(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")
	profileID := env.provisionProfile(t, adminID, "managed-one")

	if err := env.plans.SetUserPlan(adminID, "creator"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	// One card on the admin's own profile, one parked on a managed profile
	for _, owner := range []string{adminID, profileID} {
		card := &models.Card{OwnerProfileID: owner, Title: "Link", URL: "https://example.com"}
		if err := env.resourceRepo.CreateCard(card); err != nil {
			t.Fatalf("CreateCard failed: %v", err)
		}
	}

	used, err := env.entitlements.Usage(adminID, models.KindCards, "")
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if used != 2 {
		t.Errorf("Expected usage 2 across the managed set, got %d", used)
	}
}

func TestProfileUsageIsManagedSetSize(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	if err := env.plans.SetUserPlan(adminID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	used, err := env.entitlements.Usage(adminID, models.KindProfiles, "")
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if used != 1 {
		t.Errorf("Expected profile usage 1 for a fresh account, got %d", used)
	}

	// Free plan caps profiles at 1, and the own profile occupies it
	ok, err := env.entitlements.CanCreate(adminID, models.KindProfiles, "")
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if ok {
		t.Error("Free plan should not allow provisioning more profiles")
	}
}

// seedManagedPlan inserts a plan with manager mode and a small form
// limit, so per-profile and global counts diverge within a few rows.
func seedManagedPlan(t *testing.T, env *testEnv) string {
	t.Helper()
	dialect := env.db.GetDialect()
	query := `INSERT INTO plan_definitions (id, name, limit_cards, limit_forms, limit_lists, limit_profiles, allow_admin_mode, allow_video_bg)
		VALUES (?, ?, ?, ?, ?, ?, ` + dialect.BoolValue(true) + `, ` + dialect.BoolValue(false) + `)`
	if _, err := env.db.Exec(query, "boutique", "Boutique", 5, 5, 5, 10); err != nil {
		t.Fatalf("Failed to seed plan: %v", err)
	}
	return "boutique"
}

func TestPerProfileQuotaWithManagerModePlan(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")
	clientA := env.provisionProfile(t, adminID, "client-a")
	clientB := env.provisionProfile(t, adminID, "client-b")

	if err := env.plans.SetUserPlan(adminID, seedManagedPlan(t, env)); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	// Three forms on each client: 6 total against a limit of 5
	for _, owner := range []string{clientA, clientB} {
		for i := 0; i < 3; i++ {
			form := &models.FormConfig{OwnerProfileID: owner, Name: "Form"}
			if err := env.resourceRepo.CreateForm(form); err != nil {
				t.Fatalf("CreateForm failed: %v", err)
			}
		}
	}

	// The global scope is over the limit
	ok, err := env.entitlements.CanCreate(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if ok {
		t.Error("Global scope should be over the limit")
	}
	remaining, err := env.entitlements.RemainingSlots(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("RemainingSlots failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("Expected 0 remaining globally, got %d", remaining)
	}

	// A single client checked on its own still has room
	ok, err = env.entitlements.CanCreate(adminID, models.KindForms, clientA)
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if !ok {
		t.Error("Per-profile scope should allow creation under the limit")
	}
	remaining, err = env.entitlements.RemainingSlots(adminID, models.KindForms, clientA)
	if err != nil {
		t.Fatalf("RemainingSlots failed: %v", err)
	}
	if remaining != 2 {
		t.Errorf("Expected 2 remaining for the client, got %d", remaining)
	}
}

func TestProfileScopeIgnoredWithoutManagerMode(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")
	clientID := env.provisionProfile(t, adminID, "client-a")

	// The free plan has no manager mode and a single-form allowance
	if err := env.plans.SetUserPlan(adminID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	form := &models.FormConfig{OwnerProfileID: adminID, Name: "Contact"}
	if err := env.resourceRepo.CreateForm(form); err != nil {
		t.Fatalf("CreateForm failed: %v", err)
	}

	// Naming an empty client profile must not open a side door around
	// the global count
	ok, err := env.entitlements.CanCreate(adminID, models.KindForms, clientID)
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if ok {
		t.Error("Scope hint must be ignored without manager mode")
	}
}

func TestRemainingSlotsClampAfterDowngrade(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	if err := env.plans.SetUserPlan(adminID, "creator"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		form := &models.FormConfig{OwnerProfileID: adminID, Name: "Form"}
		if err := env.resourceRepo.CreateForm(form); err != nil {
			t.Fatalf("CreateForm failed: %v", err)
		}
	}

	// Downgrade below current usage: overage reads as zero, not a debt
	if err := env.plans.SetUserPlan(adminID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	remaining, err := env.entitlements.RemainingSlots(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("RemainingSlots failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("Expected remaining slots clamped to 0, got %d", remaining)
	}

	ok, err := env.entitlements.CanCreate(adminID, models.KindForms, "")
	if err != nil {
		t.Fatalf("CanCreate failed: %v", err)
	}
	if ok {
		t.Error("Creation must stay blocked while over the limit")
	}
}
