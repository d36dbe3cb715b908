package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"linkdeck/internal/models"
	"linkdeck/internal/repository"
)

var ErrPlanNotFound = errors.New("plan not found")

// PlanService resolves users' billing plans through a small in-memory
// cache. Entitlement checks hit the plan on every request, so the cache
// keeps those reads off the database. Entries live for a fixed TTL;
// anything that changes a user's plan must also call Invalidate, since
// a stale allowance read is otherwise served until the TTL lapses.
type PlanService struct {
	planRepo *repository.PlanRepository
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[string]planCacheEntry
}

type planCacheEntry struct {
	plan      *models.Plan // nil is cached too: "no plan" is a valid answer
	fetchedAt time.Time
}

// NewPlanService creates a new plan service with the given cache TTL
func NewPlanService(planRepo *repository.PlanRepository, ttl time.Duration) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		ttl:      ttl,
		cache:    make(map[string]planCacheEntry),
	}
}

// PlanFor returns the user's current plan, or nil when the user has no
// plan assignment. Served from cache when fresh.
func (s *PlanService) PlanFor(userID string) (*models.Plan, error) {
	s.mu.RLock()
	entry, ok := s.cache[userID]
	s.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < s.ttl {
		return entry.plan, nil
	}

	plan, err := s.planRepo.GetUserPlan(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	s.mu.Lock()
	s.cache[userID] = planCacheEntry{plan: plan, fetchedAt: time.Now()}
	s.mu.Unlock()

	return plan, nil
}

// Invalidate drops the user's cached plan so the next read is fresh
func (s *PlanService) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

// SetUserPlan assigns a plan to a user and invalidates their cache entry
func (s *PlanService) SetUserPlan(userID, planID string) error {
	plan, err := s.planRepo.GetPlan(planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}

	if err := s.planRepo.SetUserPlan(userID, planID); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

// ClearUserPlan removes a user's plan assignment and invalidates their
// cache entry. The user drops to the no-plan state.
func (s *PlanService) ClearUserPlan(userID string) error {
	if err := s.planRepo.ClearUserPlan(userID); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

// ListPlans returns all plan definitions
func (s *PlanService) ListPlans() ([]models.Plan, error) {
	return s.planRepo.ListPlans()
}
