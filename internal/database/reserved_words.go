package database

import (
	"fmt"
	"log"
	"strings"
)

// reservedUsernames are handles that may never be claimed as a public
// profile URL because they collide with application routes or would be
// misleading (/{username} is the public profile path).
var reservedUsernames = []string{
	"admin", "api", "app", "auth", "billing", "blog", "cards", "contact",
	"dashboard", "docs", "forms", "help", "invite", "legal", "linkdeck",
	"lists", "login", "logout", "me", "official", "plans", "pricing",
	"privacy", "profile", "profiles", "register", "root", "settings",
	"signup", "static", "status", "support", "terms", "webhooks", "www",
}

// SeedReservedUsernames populates the reserved_usernames table on first run
func (db *DB) SeedReservedUsernames() error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM reserved_usernames").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check reserved usernames count: %w", err)
	}

	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, word := range reservedUsernames {
		if _, err := tx.Exec("INSERT INTO reserved_usernames (username) VALUES (?)", word); err != nil {
			// Skip duplicates, continue adding others
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Reserved usernames seeded (%d entries)", len(reservedUsernames))
	return nil
}

// IsReservedUsername checks if a handle is on the reserved list
func (db *DB) IsReservedUsername(username string) (bool, error) {
	cleaned := strings.TrimSpace(strings.ToLower(username))

	var count int
	query := "SELECT COUNT(*) FROM reserved_usernames WHERE username = ?"
	err := db.QueryRow(query, cleaned).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reserved username: %w", err)
	}

	return count > 0, nil
}
