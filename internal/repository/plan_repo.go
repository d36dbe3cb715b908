package repository

import (
	"database/sql"
	"fmt"

	"linkdeck/internal/database"
	"linkdeck/internal/models"
)

// PlanRepository handles database operations for plan definitions and
// user plan assignments
type PlanRepository struct {
	db *database.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = "id, name, limit_cards, limit_forms, limit_lists, limit_profiles, allow_admin_mode, allow_video_bg"

// GetPlan retrieves a plan definition by ID
func (r *PlanRepository) GetPlan(planID string) (*models.Plan, error) {
	query := "SELECT " + planColumns + " FROM plan_definitions WHERE id = ?"
	return r.scanPlan(r.db.QueryRow(query, planID))
}

// GetUserPlan retrieves the plan currently assigned to a user, or nil
// if the user has no assignment or the referenced plan no longer exists.
func (r *PlanRepository) GetUserPlan(userID string) (*models.Plan, error) {
	query := `
		SELECT p.id, p.name, p.limit_cards, p.limit_forms, p.limit_lists, p.limit_profiles, p.allow_admin_mode, p.allow_video_bg
		FROM user_plans up
		JOIN plan_definitions p ON p.id = up.plan_id
		WHERE up.user_id = ?
	`
	return r.scanPlan(r.db.QueryRow(query, userID))
}

func (r *PlanRepository) scanPlan(row *sql.Row) (*models.Plan, error) {
	plan := &models.Plan{}
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.LimitCards,
		&plan.LimitForms,
		&plan.LimitLists,
		&plan.LimitProfiles,
		&plan.AllowAdminMode,
		&plan.AllowVideoBG,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return plan, nil
}

// SetUserPlan assigns a plan to a user, replacing any previous
// assignment. Written as UPDATE-then-INSERT inside a transaction because
// the three dialects have no common upsert syntax.
func (r *PlanRepository) SetUserPlan(userID, planID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("UPDATE user_plans SET plan_id = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?", planID, userID)
	if err != nil {
		return fmt.Errorf("failed to update user plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		if _, err := tx.Exec("INSERT INTO user_plans (user_id, plan_id) VALUES (?, ?)", userID, planID); err != nil {
			return fmt.Errorf("failed to insert user plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClearUserPlan removes a user's plan assignment
func (r *PlanRepository) ClearUserPlan(userID string) error {
	if _, err := r.db.Exec("DELETE FROM user_plans WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear user plan: %w", err)
	}
	return nil
}

// ListPlans retrieves all plan definitions
func (r *PlanRepository) ListPlans() ([]models.Plan, error) {
	query := "SELECT " + planColumns + " FROM plan_definitions ORDER BY limit_profiles ASC, id ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var plan models.Plan
		if err := rows.Scan(
			&plan.ID,
			&plan.Name,
			&plan.LimitCards,
			&plan.LimitForms,
			&plan.LimitLists,
			&plan.LimitProfiles,
			&plan.AllowAdminMode,
			&plan.AllowVideoBG,
		); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, nil
}
