package repository

import (
	"fmt"
	"time"

	"linkdeck/internal/database"
	"linkdeck/internal/models"
)

// ResourceRepository handles database operations for the quota-limited
// resources: cards, form configs and link lists.
type ResourceRepository struct {
	db *database.DB
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(db *database.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// tableFor maps a resource kind to its table. KindProfiles is not a
// stored resource here; profile counting belongs to the entitlement
// layer's managed-set walk.
func tableFor(kind models.ResourceKind) (string, error) {
	switch kind {
	case models.KindCards:
		return "cards", nil
	case models.KindForms:
		return "form_configs", nil
	case models.KindLists:
		return "link_lists", nil
	default:
		return "", fmt.Errorf("no table for resource kind %s", kind)
	}
}

// CountOwnedBy counts rows of the given kind owned by any of the given
// profiles.
func (r *ResourceRepository) CountOwnedBy(kind models.ResourceKind, ownerIDs []string) (int, error) {
	if len(ownerIDs) == 0 {
		return 0, nil
	}

	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query := "SELECT COUNT(*) FROM " + table + " WHERE owner_profile_id IN (" + placeholders(len(ownerIDs)) + ")"
	var count int
	if err := r.db.QueryRow(query, stringArgs(ownerIDs)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	return count, nil
}

// CreateCard inserts a new card and sets its generated ID
func (r *ResourceRepository) CreateCard(card *models.Card) error {
	query := `
		INSERT INTO cards (owner_profile_id, title, url, position)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, card.OwnerProfileID, card.Title, card.URL, card.Position)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	card.ID = id
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	return nil
}

// CreateForm inserts a new form config and sets its generated ID
func (r *ResourceRepository) CreateForm(form *models.FormConfig) error {
	query := `
		INSERT INTO form_configs (owner_profile_id, name, schema_json, is_published)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, form.OwnerProfileID, form.Name, form.SchemaJSON, form.IsPublished)
	if err != nil {
		return fmt.Errorf("failed to create form config: %w", err)
	}

	form.ID = id
	form.CreatedAt = time.Now()
	form.UpdatedAt = form.CreatedAt
	return nil
}

// CreateList inserts a new link list and sets its generated ID
func (r *ResourceRepository) CreateList(list *models.LinkList) error {
	query := `
		INSERT INTO link_lists (owner_profile_id, title, description)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, list.OwnerProfileID, list.Title, list.Description)
	if err != nil {
		return fmt.Errorf("failed to create link list: %w", err)
	}

	list.ID = id
	list.CreatedAt = time.Now()
	list.UpdatedAt = list.CreatedAt
	return nil
}

// ListCards retrieves all cards owned by the given profile
func (r *ResourceRepository) ListCards(ownerProfileID string) ([]models.Card, error) {
	query := `
		SELECT id, owner_profile_id, title, url, position, created_at, updated_at
		FROM cards WHERE owner_profile_id = ?
		ORDER BY position ASC, id ASC
	`
	rows, err := r.db.Query(query, ownerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var card models.Card
		if err := rows.Scan(&card.ID, &card.OwnerProfileID, &card.Title, &card.URL, &card.Position, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ListForms retrieves all form configs owned by the given profile
func (r *ResourceRepository) ListForms(ownerProfileID string) ([]models.FormConfig, error) {
	query := `
		SELECT id, owner_profile_id, name, schema_json, is_published, created_at, updated_at
		FROM form_configs WHERE owner_profile_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, ownerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query form configs: %w", err)
	}
	defer rows.Close()

	var forms []models.FormConfig
	for rows.Next() {
		var form models.FormConfig
		if err := rows.Scan(&form.ID, &form.OwnerProfileID, &form.Name, &form.SchemaJSON, &form.IsPublished, &form.CreatedAt, &form.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan form config: %w", err)
		}
		forms = append(forms, form)
	}
	return forms, nil
}

// ListLists retrieves all link lists owned by the given profile
func (r *ResourceRepository) ListLists(ownerProfileID string) ([]models.LinkList, error) {
	query := `
		SELECT id, owner_profile_id, title, description, created_at, updated_at
		FROM link_lists WHERE owner_profile_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, ownerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query link lists: %w", err)
	}
	defer rows.Close()

	var lists []models.LinkList
	for rows.Next() {
		var list models.LinkList
		if err := rows.Scan(&list.ID, &list.OwnerProfileID, &list.Title, &list.Description, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// Delete removes a resource, but only when it is owned by one of the
// given profiles. Returns false when no row matched.
func (r *ResourceRepository) Delete(kind models.ResourceKind, id int64, ownerIDs []string) (bool, error) {
	if len(ownerIDs) == 0 {
		return false, nil
	}

	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	query := "DELETE FROM " + table + " WHERE id = ? AND owner_profile_id IN (" + placeholders(len(ownerIDs)) + ")"
	args := append([]interface{}{id}, stringArgs(ownerIDs)...)
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows > 0, nil
}
