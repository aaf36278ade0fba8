package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/numtrip/numtrip-backend/internal/models"
)

// ErrOwnershipTaken indicates a concurrent claimant won the ownership race
var ErrOwnershipTaken = errors.New("business ownership already assigned to another user")

const businessColumns = `id, external_id, name, description, category, city, address,
       email, phone, whatsapp, latitude, longitude, owner_id, verified,
       claimed_at, created_at, updated_at`

// BusinessRepository handles business database operations
type BusinessRepository struct {
	db DB
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db DB) *BusinessRepository {
	return &BusinessRepository{
		db: db,
	}
}

// Create inserts a new business record
func (r *BusinessRepository) Create(business *models.Business) error {
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	now := time.Now()
	business.CreatedAt = now
	business.UpdatedAt = now

	query := `
		INSERT INTO businesses (
			id, external_id, name, description, category, city, address,
			email, phone, whatsapp, latitude, longitude, verified,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::business_category, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(
		query,
		business.ID,
		business.ExternalID,
		business.Name,
		business.Description,
		business.Category,
		business.City,
		business.Address,
		business.Email,
		business.Phone,
		business.Whatsapp,
		business.Latitude,
		business.Longitude,
		business.Verified,
		business.CreatedAt,
		business.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

// GetByID retrieves a business by ID
func (r *BusinessRepository) GetByID(id uuid.UUID) (*models.Business, error) {
	var business models.Business

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`

	err := r.db.Get(&business, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Business not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get business by ID: %w", err)
	}

	return &business, nil
}

// GetByExternalID retrieves a business by its external provider ID
func (r *BusinessRepository) GetByExternalID(externalID string) (*models.Business, error) {
	var business models.Business

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE external_id = $1`

	err := r.db.Get(&business, query, externalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business by external ID: %w", err)
	}

	return &business, nil
}

// SearchByNameTokens retrieves businesses whose name contains any of the
// given tokens (case-insensitive). Used as the fuzzy-match candidate set
// during import deduplication.
func (r *BusinessRepository) SearchByNameTokens(tokens []string) ([]*models.Business, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	conditions := make([]string, len(tokens))
	args := make([]interface{}, len(tokens))
	for i, token := range tokens {
		conditions[i] = fmt.Sprintf("name ILIKE $%d", i+1)
		args[i] = "%" + token + "%"
	}

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE ` + strings.Join(conditions, " OR ")

	var businesses []*models.Business
	err := r.db.Select(&businesses, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search businesses by name tokens: %w", err)
	}

	return businesses, nil
}

// List retrieves businesses with optional city/category filters and pagination
func (r *BusinessRepository) List(city string, category string, limit, offset int) ([]*models.Business, error) {
	var businesses []*models.Business

	conditions := []string{"1=1"}
	args := []interface{}{}
	argc := 0

	if city != "" {
		argc++
		conditions = append(conditions, fmt.Sprintf("city ILIKE $%d", argc))
		args = append(args, city)
	}
	if category != "" {
		argc++
		conditions = append(conditions, fmt.Sprintf("category = $%d::business_category", argc))
		args = append(args, category)
	}

	query := fmt.Sprintf(
		`SELECT `+businessColumns+` FROM businesses WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argc+1, argc+2,
	)
	args = append(args, limit, offset)

	err := r.db.Select(&businesses, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	return businesses, nil
}

// ListByOwner retrieves businesses owned by the given user, with
// aggregated community validation counts per business.
func (r *BusinessRepository) ListByOwner(ownerID uuid.UUID) ([]*models.OwnedBusiness, error) {
	var businesses []*models.OwnedBusiness

	query := `
		SELECT b.id, b.external_id, b.name, b.description, b.category, b.city,
		       b.address, b.email, b.phone, b.whatsapp, b.latitude, b.longitude,
		       b.owner_id, b.verified, b.claimed_at, b.created_at, b.updated_at,
		       COUNT(cv.id) AS validation_count,
		       COUNT(cv.id) FILTER (WHERE cv.valid) AS valid_confirmations,
		       COUNT(cv.id) FILTER (WHERE NOT cv.valid) AS invalid_confirmations
		FROM businesses b
		LEFT JOIN contact_validations cv ON cv.business_id = b.id
		WHERE b.owner_id = $1
		GROUP BY b.id
		ORDER BY b.claimed_at DESC NULLS LAST
	`

	err := r.db.Select(&businesses, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses by owner: %w", err)
	}

	return businesses, nil
}

// AssignOwnerTx assigns ownership of a business within an existing
// transaction. The conditional WHERE makes concurrent approvals safe:
// the first writer wins and the loser gets ErrOwnershipTaken.
func (r *BusinessRepository) AssignOwnerTx(tx *sqlx.Tx, businessID, ownerID uuid.UUID, claimedAt time.Time) error {
	query := `
		UPDATE businesses
		SET owner_id = $1,
		    verified = true,
		    claimed_at = $2,
		    updated_at = $2
		WHERE id = $3
		  AND (owner_id IS NULL OR owner_id = $1)
	`

	result, err := tx.Exec(query, ownerID, claimedAt, businessID)
	if err != nil {
		return fmt.Errorf("failed to assign business owner: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOwnershipTaken
	}

	return nil
}

// DashboardStats holds aggregate counts for the admin dashboard
type DashboardStats struct {
	TotalBusinesses    int `db:"total_businesses" json:"total_businesses"`
	VerifiedBusinesses int `db:"verified_businesses" json:"verified_businesses"`
	ClaimedBusinesses  int `db:"claimed_businesses" json:"claimed_businesses"`
	TotalValidations   int `db:"total_validations" json:"total_validations"`
	ActivePromoCodes   int `db:"active_promo_codes" json:"active_promo_codes"`
}

// GetDashboardStats returns aggregate business/validation/promo counts
func (r *BusinessRepository) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	query := `
		SELECT
			(SELECT COUNT(*) FROM businesses) AS total_businesses,
			(SELECT COUNT(*) FROM businesses WHERE verified) AS verified_businesses,
			(SELECT COUNT(*) FROM businesses WHERE owner_id IS NOT NULL) AS claimed_businesses,
			(SELECT COUNT(*) FROM contact_validations) AS total_validations,
			(SELECT COUNT(*) FROM promo_codes WHERE active) AS active_promo_codes
	`

	err := r.db.Get(&stats, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	return &stats, nil
}
