package repository

import (
	"database/sql"
	"fmt"
	"time"

	"linkdeck/internal/database"
	"linkdeck/internal/models"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = "id, token, invited_by_admin_id, profile_id, COALESCE(linked_profile_id, ''), COALESCE(email, ''), status, expires_at, created_at, accepted_at"

// Create inserts a new invitation
func (r *InvitationRepository) Create(inv *models.Invitation) error {
	if err := r.createTx(r.db, inv); err != nil {
		return err
	}
	inv.CreatedAt = time.Now()
	return nil
}

// createTx inserts an invitation row using the given queryable, so the
// supersede flow can reuse it inside its transaction.
func (r *InvitationRepository) createTx(q database.DBTX, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, token, invited_by_admin_id, profile_id, email, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := q.Exec(query, inv.ID, inv.Token, inv.InvitedByAdminID, inv.ProfileID, inv.Email, inv.Status, inv.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetByToken retrieves an invitation by its opaque token
func (r *InvitationRepository) GetByToken(token string) (*models.Invitation, error) {
	query := "SELECT " + invitationColumns + " FROM invitations WHERE token = ?"
	return r.scanInvitation(r.db.QueryRow(query, token))
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(id string) (*models.Invitation, error) {
	query := "SELECT " + invitationColumns + " FROM invitations WHERE id = ?"
	return r.scanInvitation(r.db.QueryRow(query, id))
}

// GetLiveByProfile retrieves the profile's pending, unexpired invitation,
// or nil if none exists.
func (r *InvitationRepository) GetLiveByProfile(profileID string, now time.Time) (*models.Invitation, error) {
	query := "SELECT " + invitationColumns + ` FROM invitations
		WHERE profile_id = ? AND status = ? AND expires_at > ?
		ORDER BY created_at DESC LIMIT 1`
	return r.scanInvitation(r.db.QueryRow(query, profileID, models.InvitationPending, now))
}

// LatestByProfile retrieves the profile's most recent invitation
// regardless of status, or nil if the profile never had one.
func (r *InvitationRepository) LatestByProfile(profileID string) (*models.Invitation, error) {
	query := "SELECT " + invitationColumns + ` FROM invitations
		WHERE profile_id = ?
		ORDER BY created_at DESC LIMIT 1`
	return r.scanInvitation(r.db.QueryRow(query, profileID))
}

func (r *InvitationRepository) scanInvitation(row *sql.Row) (*models.Invitation, error) {
	inv := &models.Invitation{}
	var acceptedAt sql.NullTime
	err := row.Scan(
		&inv.ID,
		&inv.Token,
		&inv.InvitedByAdminID,
		&inv.ProfileID,
		&inv.LinkedProfileID,
		&inv.Email,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&acceptedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	return inv, nil
}

// ListByAdmin retrieves all invitations issued by an admin, newest first
func (r *InvitationRepository) ListByAdmin(adminID string) ([]models.Invitation, error) {
	query := "SELECT " + invitationColumns + ` FROM invitations
		WHERE invited_by_admin_id = ?
		ORDER BY created_at DESC`
	rows, err := r.db.Query(query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var inv models.Invitation
		var acceptedAt sql.NullTime
		if err := rows.Scan(
			&inv.ID,
			&inv.Token,
			&inv.InvitedByAdminID,
			&inv.ProfileID,
			&inv.LinkedProfileID,
			&inv.Email,
			&inv.Status,
			&inv.ExpiresAt,
			&inv.CreatedAt,
			&acceptedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		if acceptedAt.Valid {
			inv.AcceptedAt = &acceptedAt.Time
		}
		invitations = append(invitations, inv)
	}

	return invitations, nil
}

// Accept atomically consumes a pending, unexpired invitation: it marks
// the row accepted, records the linked profile, and activates the target
// profile, all in one transaction. The WHERE clause is the concurrency
// guard: of two racing accepts, exactly one updates a row. Returns false
// with a nil error when the invitation was already used, expired, or
// cancelled by the time the update ran.
func (r *InvitationRepository) Accept(token, linkedProfileID string, now time.Time) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE invitations
		SET status = ?, linked_profile_id = ?, accepted_at = ?
		WHERE token = ? AND status = ? AND expires_at > ?
	`
	result, err := tx.Exec(query, models.InvitationAccepted, linkedProfileID, now, token, models.InvitationPending, now)
	if err != nil {
		return false, fmt.Errorf("failed to accept invitation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read accept result: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	query = `
		UPDATE profiles
		SET is_activated = ` + r.db.Dialect.BoolValue(true) + `, updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT profile_id FROM invitations WHERE token = ?)
	`
	if _, err := tx.Exec(query, token); err != nil {
		return false, fmt.Errorf("failed to activate profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Supersede cancels any pending invitation for the profile, optionally
// deactivates the profile, and inserts the replacement row, all in one
// transaction. There is never a moment where the profile has two pending
// invitations or none at all.
func (r *InvitationRepository) Supersede(profileID string, replacement *models.Invitation, deactivateProfile bool) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "UPDATE invitations SET status = ? WHERE profile_id = ? AND status = ?"
	if _, err := tx.Exec(query, models.InvitationCancelled, profileID, models.InvitationPending); err != nil {
		return fmt.Errorf("failed to cancel invitation: %w", err)
	}

	if deactivateProfile {
		query = "UPDATE profiles SET is_activated = " + r.db.Dialect.BoolValue(false) + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
		if _, err := tx.Exec(query, profileID); err != nil {
			return fmt.Errorf("failed to deactivate profile: %w", err)
		}
	}

	if err := r.createTx(tx, replacement); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	replacement.CreatedAt = time.Now()
	return nil
}

// CancelPending cancels the profile's pending invitation, if any
func (r *InvitationRepository) CancelPending(profileID string) error {
	query := "UPDATE invitations SET status = ? WHERE profile_id = ? AND status = ?"
	if _, err := r.db.Exec(query, models.InvitationCancelled, profileID, models.InvitationPending); err != nil {
		return fmt.Errorf("failed to cancel invitation: %w", err)
	}
	return nil
}

// MarkStaleExpired flips pending rows past their expiry to expired.
// Purely cosmetic for listings; every reader already computes liveness.
func (r *InvitationRepository) MarkStaleExpired(now time.Time) (int64, error) {
	query := "UPDATE invitations SET status = ? WHERE status = ? AND expires_at <= ?"
	result, err := r.db.Exec(query, models.InvitationExpired, models.InvitationPending, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read expire result: %w", err)
	}
	return rows, nil
}
