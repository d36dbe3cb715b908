package service

import (
	"path/filepath"
	"testing"
	"time"

	"linkdeck/internal/database"
	"linkdeck/internal/repository"
)

// testEnv wires the full service stack over a throwaway SQLite database
type testEnv struct {
	db *database.DB

	userRepo       *repository.UserRepository
	profileRepo    *repository.ProfileRepository
	invitationRepo *repository.InvitationRepository
	planRepo       *repository.PlanRepository
	resourceRepo   *repository.ResourceRepository

	auth         *AuthService
	profiles     *ProfileService
	invitations  *InvitationService
	plans        *PlanService
	entitlements *EntitlementService
}

func newTestEnv(t *testing.T) *testEnv {
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

	env := &testEnv{
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		profileRepo:    repository.NewProfileRepository(db),
		invitationRepo: repository.NewInvitationRepository(db),
		planRepo:       repository.NewPlanRepository(db),
		resourceRepo:   repository.NewResourceRepository(db),
	}

	env.auth = NewAuthService(env.userRepo, env.profileRepo, 24*time.Hour)
	env.profiles = NewProfileService(env.profileRepo, env.invitationRepo)
	env.invitations = NewInvitationService(env.invitationRepo, env.profileRepo, env.userRepo, nil, 7*24*time.Hour)
	env.plans = NewPlanService(env.planRepo, 5*time.Minute)
	env.entitlements = NewEntitlementService(env.plans, env.profiles, env.resourceRepo)

	return env
}

// registerUser creates an account and returns its id
func (env *testEnv) registerUser(t *testing.T, email, username string) string {
	t.Helper()
	user, err := env.auth.Register(email, "password123", "Test User", username)
	if err != nil {
		t.Fatalf("Failed to register %s: %v", email, err)
	}
	return user.ID
}

// provisionProfile creates a provisional profile for the admin
func (env *testEnv) provisionProfile(t *testing.T, adminID, username string) string {
	t.Helper()
	profile, err := env.profiles.CreateProvisionalProfile(adminID, username, "Managed Profile")
	if err != nil {
		t.Fatalf("Failed to create provisional profile: %v", err)
	}
	return profile.ID
}
