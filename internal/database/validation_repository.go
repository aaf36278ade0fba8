package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/numtrip/numtrip-backend/internal/models"
)

// ValidationRepository handles community contact validation operations
type ValidationRepository struct {
	db DB
}

// NewValidationRepository creates a new validation repository
func NewValidationRepository(db DB) *ValidationRepository {
	return &ValidationRepository{
		db: db,
	}
}

// Upsert records a user's vote on a business contact field. A repeat vote
// by the same user on the same field overwrites the previous one.
func (r *ValidationRepository) Upsert(validation *models.ContactValidation) error {
	if validation.ID == uuid.Nil {
		validation.ID = uuid.New()
	}
	validation.CreatedAt = time.Now()

	query := `
		INSERT INTO contact_validations (id, business_id, user_id, field, valid, created_at)
		VALUES ($1, $2, $3, $4::validation_field, $5, $6)
		ON CONFLICT (business_id, user_id, field) DO UPDATE SET
			valid = EXCLUDED.valid,
			created_at = EXCLUDED.created_at
	`

	_, err := r.db.Exec(
		query,
		validation.ID,
		validation.BusinessID,
		validation.UserID,
		validation.Field,
		validation.Valid,
		validation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert contact validation: %w", err)
	}

	return nil
}

// FieldCount holds per-field validation tallies for a business
type FieldCount struct {
	Field   models.ValidationField `db:"field" json:"field"`
	Valid   int                    `db:"valid_count" json:"valid"`
	Invalid int                    `db:"invalid_count" json:"invalid"`
}

// CountByBusiness returns validation tallies per contact field
func (r *ValidationRepository) CountByBusiness(businessID uuid.UUID) ([]FieldCount, error) {
	var counts []FieldCount

	query := `
		SELECT field,
		       COUNT(*) FILTER (WHERE valid) AS valid_count,
		       COUNT(*) FILTER (WHERE NOT valid) AS invalid_count
		FROM contact_validations
		WHERE business_id = $1
		GROUP BY field
	`

	err := r.db.Select(&counts, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to count validations by business: %w", err)
	}

	return counts, nil
}
