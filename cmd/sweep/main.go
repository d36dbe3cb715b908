package main

import (
	"log"
	"time"

	"linkdeck/internal/config"
	"linkdeck/internal/database"
	"linkdeck/internal/repository"
)

// One-shot housekeeping pass, for running from cron against deployments
// where the server's hourly ticker is not enough (or the server is down).
func main() {
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	if err := userRepo.DeleteExpiredSessions(); err != nil {
		log.Printf("Failed to delete expired sessions: %v", err)
	} else {
		log.Println("Expired sessions deleted")
	}

	n, err := invitationRepo.MarkStaleExpired(time.Now())
	if err != nil {
		log.Fatalf("Failed to expire stale invitations: %v", err)
	}
	log.Printf("Marked %d stale invitations expired", n)
}
