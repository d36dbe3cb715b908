package service

import (
	"errors"
	"testing"
	"time"
)

func TestPlanForCachesResult(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	if err := env.planRepo.SetUserPlan(adminID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	plan, err := env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan == nil || plan.ID != "free" {
		t.Fatalf("Expected free plan, got %+v", plan)
	}

	// Change the assignment behind the cache's back: the stale read is
	// served until the entry is invalidated.
	if err := env.planRepo.SetUserPlan(adminID, "creator"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	plan, err = env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan.ID != "free" {
		t.Errorf("Expected cached free plan, got %s", plan.ID)
	}

	env.plans.Invalidate(adminID)

	plan, err = env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan.ID != "creator" {
		t.Errorf("Expected fresh creator plan after invalidation, got %s", plan.ID)
	}
}

func TestPlanForCachesNoPlan(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	plan, err := env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan != nil {
		t.Errorf("Expected nil plan, got %+v", plan)
	}

	// The no-plan answer is cached too
	if err := env.planRepo.SetUserPlan(adminID, "free"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}
	plan, err = env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan != nil {
		t.Errorf("Expected cached nil plan, got %+v", plan)
	}
}

func TestPlanCacheTTLExpiry(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	plans := NewPlanService(env.planRepo, 10*time.Millisecond)

	if _, err := plans.PlanFor(adminID); err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}

	if err := env.planRepo.SetUserPlan(adminID, "agency"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	plan, err := plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan == nil || plan.ID != "agency" {
		t.Errorf("Expected fresh agency plan after TTL lapse, got %+v", plan)
	}
}

func TestSetUserPlanInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	if _, err := env.plans.PlanFor(adminID); err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}

	if err := env.plans.SetUserPlan(adminID, "creator"); err != nil {
		t.Fatalf("SetUserPlan failed: %v", err)
	}

	plan, err := env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan == nil || plan.ID != "creator" {
		t.Errorf("Expected creator plan right after assignment, got %+v", plan)
	}

	if err := env.plans.ClearUserPlan(adminID); err != nil {
		t.Fatalf("ClearUserPlan failed: %v", err)
	}

	plan, err = env.plans.PlanFor(adminID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan != nil {
		t.Errorf("Expected nil plan after clearing, got %+v", plan)
	}
}

func TestSetUserPlanRejectsUnknownPlan(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.registerUser(t, "admin@example.com", "admin-user")

	if err := env.plans.SetUserPlan(adminID, "no-such-plan"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("Expected ErrPlanNotFound, got %v", err)
	}
}

func TestListPlans(t *testing.T) {
	env := newTestEnv(t)

	plans, err := env.plans.ListPlans()
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("Expected 3 seeded plans, got %d", len(plans))
	}

	// Ordered by profile limit, smallest first
	if plans[0].ID != "free" || plans[2].ID != "agency" {
		t.Errorf("Unexpected plan ordering: %v, %v, %v", plans[0].ID, plans[1].ID, plans[2].ID)
	}

	for _, p := range plans {
		if p.ID == "agency" && !p.AllowAdminMode {
			t.Error("Agency plan should allow admin mode")
		}
		if p.ID == "free" && p.AllowAdminMode {
			t.Error("Free plan should not allow admin mode")
		}
	}
}
