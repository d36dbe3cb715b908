package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"linkdeck/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version     string             `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Users       []UserBackup       `json:"users"`
	Profiles    []ProfileBackup    `json:"profiles"`
	Invitations []InvitationBackup `json:"invitations"`
	UserPlans   []UserPlanBackup   `json:"user_plans"`
	Cards       []CardBackup       `json:"cards"`
	Forms       []FormBackup       `json:"forms"`
	Lists       []ListBackup       `json:"lists"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfileBackup represents a profile record for backup
type ProfileBackup struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"display_name"`
	CreatedByAdminID string    `json:"created_by_admin_id"`
	IsActivated      bool      `json:"is_activated"`
	CreatedAt        time.Time `json:"created_at"`
}

// InvitationBackup represents an invitation record for backup
type InvitationBackup struct {
	ID               string     `json:"id"`
	Token            string     `json:"token"`
	InvitedByAdminID string     `json:"invited_by_admin_id"`
	ProfileID        string     `json:"profile_id"`
	LinkedProfileID  string     `json:"linked_profile_id"`
	Email            string     `json:"email"`
	Status           string     `json:"status"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	AcceptedAt       *time.Time `json:"accepted_at"`
}

// UserPlanBackup represents a plan assignment for backup
type UserPlanBackup struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

// CardBackup represents a card record for backup
type CardBackup struct {
	OwnerProfileID string `json:"owner_profile_id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Position       int    `json:"position"`
}

// FormBackup represents a form config record for backup
type FormBackup struct {
	OwnerProfileID string `json:"owner_profile_id"`
	Name           string `json:"name"`
	SchemaJSON     string `json:"schema_json"`
	IsPublished    bool   `json:"is_published"`
}

// ListBackup represents a link list record for backup
type ListBackup struct {
	OwnerProfileID string `json:"owner_profile_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
}

// BackupService handles database backup and restore operations.
// Sessions and the cached plan state are deliberately not exported;
// both are rebuilt on demand.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportProfiles(backup); err != nil {
		return fmt.Errorf("failed to export profiles: %w", err)
	}
	if err := s.exportInvitations(backup); err != nil {
		return fmt.Errorf("failed to export invitations: %w", err)
	}
	if err := s.exportUserPlans(backup); err != nil {
		return fmt.Errorf("failed to export user plans: %w", err)
	}
	if err := s.exportResources(backup); err != nil {
		return fmt.Errorf("failed to export resources: %w", err)
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	log.Printf("Export complete: %d users, %d profiles, %d invitations, %d cards, %d forms, %d lists",
		len(backup.Users), len(backup.Profiles), len(backup.Invitations),
		len(backup.Cards), len(backup.Forms), len(backup.Lists))
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), is_admin, created_at FROM users`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.IsAdmin, &u.CreatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportProfiles(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, username, display_name, COALESCE(created_by_admin_id, ''), is_activated, created_at FROM profiles`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProfileBackup
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.CreatedByAdminID, &p.IsActivated, &p.CreatedAt); err != nil {
			return err
		}
		backup.Profiles = append(backup.Profiles, p)
	}
	return rows.Err()
}

func (s *BackupService) exportInvitations(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT id, token, invited_by_admin_id, profile_id, COALESCE(linked_profile_id, ''), COALESCE(email, ''), status, expires_at, created_at, accepted_at FROM invitations`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var inv InvitationBackup
		var acceptedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.Token, &inv.InvitedByAdminID, &inv.ProfileID, &inv.LinkedProfileID, &inv.Email, &inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &acceptedAt); err != nil {
			return err
		}
		if acceptedAt.Valid {
			inv.AcceptedAt = &acceptedAt.Time
		}
		backup.Invitations = append(backup.Invitations, inv)
	}
	return rows.Err()
}

func (s *BackupService) exportUserPlans(backup *BackupData) error {
	rows, err := s.db.Query(`SELECT user_id, plan_id FROM user_plans`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var up UserPlanBackup
		if err := rows.Scan(&up.UserID, &up.PlanID); err != nil {
			return err
		}
		backup.UserPlans = append(backup.UserPlans, up)
	}
	return rows.Err()
}

func (s *BackupService) exportResources(backup *BackupData) error {
	cardRows, err := s.db.Query(`SELECT owner_profile_id, title, url, position FROM cards`)
	if err != nil {
		return err
	}
	defer cardRows.Close()
	for cardRows.Next() {
		var c CardBackup
		if err := cardRows.Scan(&c.OwnerProfileID, &c.Title, &c.URL, &c.Position); err != nil {
			return err
		}
		backup.Cards = append(backup.Cards, c)
	}
	if err := cardRows.Err(); err != nil {
		return err
	}

	formRows, err := s.db.Query(`SELECT owner_profile_id, name, schema_json, is_published FROM form_configs`)
	if err != nil {
		return err
	}
	defer formRows.Close()
	for formRows.Next() {
		var f FormBackup
		if err := formRows.Scan(&f.OwnerProfileID, &f.Name, &f.SchemaJSON, &f.IsPublished); err != nil {
			return err
		}
		backup.Forms = append(backup.Forms, f)
	}
	if err := formRows.Err(); err != nil {
		return err
	}

	listRows, err := s.db.Query(`SELECT owner_profile_id, title, description FROM link_lists`)
	if err != nil {
		return err
	}
	defer listRows.Close()
	for listRows.Next() {
		var l ListBackup
		if err := listRows.Scan(&l.OwnerProfileID, &l.Title, &l.Description); err != nil {
			return err
		}
		backup.Lists = append(backup.Lists, l)
	}
	return listRows.Err()
}

// Import restores a backup file into the database. Rows are inserted in
// dependency order; resources get fresh autoincrement ids.
func (s *BackupService) Import(inputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}

	log.Printf("Importing backup from %s (exported %s)", inputPath, backup.ExportedAt.Format(time.RFC3339))

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range backup.Users {
		if _, err := tx.Exec(`INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, u.PasswordHash, u.Name, nullable(u.OAuthProvider), nullable(u.OAuthSubject), u.IsAdmin, u.CreatedAt); err != nil {
			return fmt.Errorf("failed to import user %s: %w", u.ID, err)
		}
	}

	for _, p := range backup.Profiles {
		if _, err := tx.Exec(`INSERT INTO profiles (id, username, display_name, created_by_admin_id, is_activated, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Username, p.DisplayName, nullable(p.CreatedByAdminID), p.IsActivated, p.CreatedAt); err != nil {
			return fmt.Errorf("failed to import profile %s: %w", p.ID, err)
		}
	}

	for _, inv := range backup.Invitations {
		if _, err := tx.Exec(`INSERT INTO invitations (id, token, invited_by_admin_id, profile_id, linked_profile_id, email, status, expires_at, created_at, accepted_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.Token, inv.InvitedByAdminID, inv.ProfileID, nullable(inv.LinkedProfileID), nullable(inv.Email), inv.Status, inv.ExpiresAt, inv.CreatedAt, inv.AcceptedAt); err != nil {
			return fmt.Errorf("failed to import invitation %s: %w", inv.ID, err)
		}
	}

	for _, up := range backup.UserPlans {
		if _, err := tx.Exec(`INSERT INTO user_plans (user_id, plan_id) VALUES (?, ?)`, up.UserID, up.PlanID); err != nil {
			return fmt.Errorf("failed to import plan for user %s: %w", up.UserID, err)
		}
	}

	for _, c := range backup.Cards {
		if _, err := tx.Exec(`INSERT INTO cards (owner_profile_id, title, url, position) VALUES (?, ?, ?, ?)`,
			c.OwnerProfileID, c.Title, c.URL, c.Position); err != nil {
			return fmt.Errorf("failed to import card for profile %s: %w", c.OwnerProfileID, err)
		}
	}
	for _, f := range backup.Forms {
		if _, err := tx.Exec(`INSERT INTO form_configs (owner_profile_id, name, schema_json, is_published) VALUES (?, ?, ?, ?)`,
			f.OwnerProfileID, f.Name, f.SchemaJSON, f.IsPublished); err != nil {
			return fmt.Errorf("failed to import form for profile %s: %w", f.OwnerProfileID, err)
		}
	}
	for _, l := range backup.Lists {
		if _, err := tx.Exec(`INSERT INTO link_lists (owner_profile_id, title, description) VALUES (?, ?, ?)`,
			l.OwnerProfileID, l.Title, l.Description); err != nil {
			return fmt.Errorf("failed to import list for profile %s: %w", l.OwnerProfileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Println("Import complete")
	return nil
}

// nullable maps empty strings to NULL so optional columns round-trip
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
