package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkdeck/internal/config"
	"linkdeck/internal/database"
	"linkdeck/internal/handlers"
	"linkdeck/internal/repository"
	"linkdeck/internal/security"
	"linkdeck/internal/service"
	"linkdeck/internal/view"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Seed reserved usernames
	if err := db.SeedReservedUsernames(); err != nil {
		log.Printf("Warning: Failed to seed reserved usernames: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	planRepo := repository.NewPlanRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	authService := service.NewAuthService(userRepo, profileRepo, cfg.SessionDuration)
	profileService := service.NewProfileService(profileRepo, invitationRepo)
	invitationService := service.NewInvitationService(invitationRepo, profileRepo, userRepo, emailService, cfg.InvitationTTL)
	planService := service.NewPlanService(planRepo, cfg.PlanCacheTTL)
	entitlementService := service.NewEntitlementService(planService, profileService, resourceRepo)
	viewDelegate := view.NewDelegate()

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret),
	}

	// Initialize handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	authLimiter := security.NewRateLimiter(10, time.Minute)
	inviteLimiter := security.NewRateLimiter(20, time.Minute)

	middleware := handlers.NewMiddleware(authService, csrf)
	authHandler := handlers.NewAuthHandler(authService, planService, viewDelegate, csrf, oauthProviders, cfg.OAuthRedirectBaseURL)
	profileHandler := handlers.NewProfileHandler(profileService, invitationService, entitlementService, planService, viewDelegate)
	inviteHandler := handlers.NewInviteHandler(invitationService, profileService, authService)
	resourceHandler := handlers.NewResourceHandler(resourceRepo, profileService, entitlementService, planService, viewDelegate)
	billingHandler := handlers.NewBillingHandler(planService, cfg.BillingWebhookSecret)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/register", handlers.RateLimit(authLimiter, authHandler.Register))
	mux.HandleFunc("POST /api/login", handlers.RateLimit(authLimiter, authHandler.Login))
	mux.HandleFunc("GET /api/plans", authHandler.Plans)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Invitation acceptance (public, token-addressed)
	mux.HandleFunc("GET /invite/{token}", handlers.RateLimit(inviteLimiter, inviteHandler.Show))
	mux.HandleFunc("POST /invite/{token}/accept", handlers.RateLimit(inviteLimiter, inviteHandler.Accept))

	// Billing webhook (shared-secret authenticated)
	mux.HandleFunc("POST /webhooks/billing", billingHandler.Webhook)

	// Authenticated session routes
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/logout", middleware.RequireAuth(authHandler.Logout))
	mux.HandleFunc("GET /api/view", middleware.RequireAuth(profileHandler.GetView))
	mux.HandleFunc("PUT /api/view", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.SetView)))

	// Managed profiles and invitations
	mux.HandleFunc("GET /api/profiles", middleware.RequireAuth(profileHandler.List))
	mux.HandleFunc("POST /api/profiles", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.Create)))
	mux.HandleFunc("DELETE /api/profiles/{id}", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.Delete)))
	mux.HandleFunc("POST /api/profiles/{id}/invitations", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.Invite)))
	mux.HandleFunc("POST /api/profiles/{id}/invitations/renew", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.Renew)))
	mux.HandleFunc("POST /api/profiles/{id}/invitations/unlink", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.Unlink)))

	// Entitlements and resources
	mux.HandleFunc("GET /api/entitlements", middleware.RequireAuth(resourceHandler.Entitlements))
	mux.HandleFunc("GET /api/cards", middleware.RequireAuth(resourceHandler.ListCards))
	mux.HandleFunc("POST /api/cards", middleware.RequireAuth(middleware.CSRFProtect(resourceHandler.CreateCard)))
	mux.HandleFunc("DELETE /api/cards/{id}", middleware.RequireAuth(middleware.CSRFProtect(resourceHandler.DeleteCard)))
	mux.HandleFunc("GET /api/forms", middleware.RequireAuth(resourceHandler.ListForms))
	mux.HandleFunc("POST /api/forms", middleware.RequireAuth(middleware.CSRFProtect(resourceHandler.CreateForm)))
	mux.HandleFunc("DELETE /api/forms/{id}", middleware.RequireAuth(middleware.CSRFProtect(resourceHandler.DeleteForm)))
	mux.HandleFunc("GET /api/lists", middleware.RequireAuth(resourceHandler.ListLists))
	mux.HandleFunc("POST /api/lists", middleware.RequireAuth(middleware.CSRFProtect(resourceHandler.CreateList)))
	mux.HandleFunc("DELETE /api/lists/{id}", middleware.RequireAuth(middleware.CSRFProtect(resourceHandler.DeleteList)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background housekeeping
	go runHousekeeping(authService, invitationService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// runHousekeeping periodically removes expired sessions and marks stale
// pending invitations expired. Liveness never depends on this; it only
// keeps listings and the tables tidy.
func runHousekeeping(authService *service.AuthService, invitationService *service.InvitationService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}

		if n, err := invitationService.ExpireStale(); err != nil {
			log.Printf("Error expiring stale invitations: %v", err)
		} else if n > 0 {
			log.Printf("Marked %d stale invitations expired", n)
		}
	}
}
