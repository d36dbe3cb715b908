package repository

import (
	"database/sql"
	"fmt"
	"time"

	"linkdeck/internal/database"
	"linkdeck/internal/models"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = "id, username, display_name, COALESCE(created_by_admin_id, ''), is_activated, created_at, updated_at"

// Create inserts a new profile
func (r *ProfileRepository) Create(profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, username, display_name, created_by_admin_id, is_activated)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, profile.ID, profile.Username, profile.DisplayName, profile.CreatedByAdminID, profile.IsActivated); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(id string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	return r.scanProfile(r.db.QueryRow(query, id))
}

// GetByUsername retrieves a profile by its public handle
func (r *ProfileRepository) GetByUsername(username string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE username = ?"
	return r.scanProfile(r.db.QueryRow(query, username))
}

func (r *ProfileRepository) scanProfile(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Username,
		&profile.DisplayName,
		&profile.CreatedByAdminID,
		&profile.IsActivated,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// GetByIDs retrieves profiles for a set of ids, in no particular order
func (r *ProfileRepository) GetByIDs(ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := "SELECT " + profileColumns + " FROM profiles WHERE id IN (" + placeholders(len(ids)) + ") ORDER BY created_at ASC"
	rows, err := r.db.Query(query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.Username,
			&profile.DisplayName,
			&profile.CreatedByAdminID,
			&profile.IsActivated,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// ListByCreator retrieves all profiles created by an admin, oldest first
func (r *ProfileRepository) ListByCreator(adminID string) ([]models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE created_by_admin_id = ? ORDER BY created_at ASC"
	rows, err := r.db.Query(query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(
			&profile.ID,
			&profile.Username,
			&profile.DisplayName,
			&profile.CreatedByAdminID,
			&profile.IsActivated,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// UsernameExists checks if a handle is already taken
func (r *ProfileRepository) UsernameExists(username string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM profiles WHERE username = ?", username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// IsUsernameReserved checks the reserved-handle table
func (r *ProfileRepository) IsUsernameReserved(username string) (bool, error) {
	return r.db.IsReservedUsername(username)
}

// UpdateDisplayName updates a profile's display name
func (r *ProfileRepository) UpdateDisplayName(id, displayName string) error {
	query := "UPDATE profiles SET display_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, displayName, id); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// Delete deletes a profile. Invitations and owned resources cascade via
// foreign keys.
func (r *ProfileRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM profiles WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// placeholders returns "?, ?, ..." with n placeholders for IN clauses
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	result := "?"
	for i := 1; i < n; i++ {
		result += ", ?"
	}
	return result
}

// stringArgs converts a string slice to the variadic arg form Query expects
func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
