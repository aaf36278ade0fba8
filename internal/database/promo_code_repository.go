package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/numtrip/numtrip-backend/internal/models"
)

const promoCodeColumns = `id, business_id, code, description, discount_percent,
       valid_from, valid_until, active, created_at, updated_at`

// PromoCodeRepository handles promo code database operations
type PromoCodeRepository struct {
	db DB
}

// NewPromoCodeRepository creates a new promo code repository
func NewPromoCodeRepository(db DB) *PromoCodeRepository {
	return &PromoCodeRepository{
		db: db,
	}
}

// Create inserts a new promo code
func (r *PromoCodeRepository) Create(promo *models.PromoCode) error {
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	now := time.Now()
	promo.CreatedAt = now
	promo.UpdatedAt = now

	query := `
		INSERT INTO promo_codes (
			id, business_id, code, description, discount_percent,
			valid_from, valid_until, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		promo.ID,
		promo.BusinessID,
		promo.Code,
		promo.Description,
		promo.DiscountPercent,
		promo.ValidFrom,
		promo.ValidUntil,
		promo.Active,
		promo.CreatedAt,
		promo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create promo code: %w", err)
	}

	return nil
}

// GetByID retrieves a promo code by ID
func (r *PromoCodeRepository) GetByID(id uuid.UUID) (*models.PromoCode, error) {
	var promo models.PromoCode

	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE id = $1`

	err := r.db.Get(&promo, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get promo code by ID: %w", err)
	}

	return &promo, nil
}

// ListByBusiness retrieves active promo codes for a business, newest first
func (r *PromoCodeRepository) ListByBusiness(businessID uuid.UUID) ([]*models.PromoCode, error) {
	var promos []*models.PromoCode

	query := `
		SELECT ` + promoCodeColumns + `
		FROM promo_codes
		WHERE business_id = $1 AND active
		ORDER BY created_at DESC
	`

	err := r.db.Select(&promos, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes by business: %w", err)
	}

	return promos, nil
}

// Update rewrites the editable fields of a promo code
func (r *PromoCodeRepository) Update(promo *models.PromoCode) error {
	promo.UpdatedAt = time.Now()

	query := `
		UPDATE promo_codes
		SET code = $1,
		    description = $2,
		    discount_percent = $3,
		    valid_from = $4,
		    valid_until = $5,
		    active = $6,
		    updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.Exec(
		query,
		promo.Code,
		promo.Description,
		promo.DiscountPercent,
		promo.ValidFrom,
		promo.ValidUntil,
		promo.Active,
		promo.UpdatedAt,
		promo.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update promo code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("promo code not found")
	}

	return nil
}

// Deactivate marks a promo code inactive
func (r *PromoCodeRepository) Deactivate(id uuid.UUID) error {
	query := `
		UPDATE promo_codes
		SET active = false,
		    updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("promo code not found")
	}

	return nil
}
