package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/numtrip/numtrip-backend/internal/models"
)

const claimColumns = `id, business_id, user_id, status, verification_type, contact_value,
       verification_code, code_expires_at, claim_reason, admin_notes,
       ip_address, user_agent, created_at, updated_at, verified_at, approved_at`

// ClaimRepository handles business claim database operations
type ClaimRepository struct {
	db DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db DB) *ClaimRepository {
	return &ClaimRepository{
		db: db,
	}
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(id uuid.UUID) (*models.BusinessClaim, error) {
	var claim models.BusinessClaim

	query := `SELECT ` + claimColumns + ` FROM business_claims WHERE id = $1`

	err := r.db.Get(&claim, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Claim not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get claim by ID: %w", err)
	}

	return &claim, nil
}

// GetByBusinessAndUser retrieves the claim row for a (business, user) pair
func (r *ClaimRepository) GetByBusinessAndUser(businessID, userID uuid.UUID) (*models.BusinessClaim, error) {
	var claim models.BusinessClaim

	query := `SELECT ` + claimColumns + ` FROM business_claims WHERE business_id = $1 AND user_id = $2`

	err := r.db.Get(&claim, query, businessID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get claim by business and user: %w", err)
	}

	return &claim, nil
}

// Upsert creates the claim row for (business_id, user_id) or overwrites it
// in place on re-initiation. The unique index on the pair serializes
// concurrent starts at the storage layer.
func (r *ClaimRepository) Upsert(claim *models.BusinessClaim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	now := time.Now()
	claim.CreatedAt = now
	claim.UpdatedAt = now

	query := `
		INSERT INTO business_claims (
			id, business_id, user_id, status, verification_type, contact_value,
			verification_code, code_expires_at, claim_reason,
			ip_address, user_agent, created_at, updated_at
		) VALUES ($1, $2, $3, $4::claim_status, $5::verification_type, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (business_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			verification_type = EXCLUDED.verification_type,
			contact_value = EXCLUDED.contact_value,
			verification_code = EXCLUDED.verification_code,
			code_expires_at = EXCLUDED.code_expires_at,
			claim_reason = EXCLUDED.claim_reason,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			updated_at = EXCLUDED.updated_at,
			verified_at = NULL,
			approved_at = NULL
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		claim.ID,
		claim.BusinessID,
		claim.UserID,
		claim.Status,
		claim.VerificationType,
		claim.ContactValue,
		claim.VerificationCode,
		claim.CodeExpiresAt,
		claim.ClaimReason,
		claim.IPAddress,
		claim.UserAgent,
		claim.CreatedAt,
		claim.UpdatedAt,
	).Scan(&claim.ID, &claim.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert claim: %w", err)
	}

	return nil
}

// MarkExpired transitions a claim to expired. Lazy expiry: performed when a
// verification attempt finds the code past its deadline.
func (r *ClaimRepository) MarkExpired(id uuid.UUID) error {
	query := `
		UPDATE business_claims
		SET status = 'expired',
		    updated_at = $1
		WHERE id = $2
	`

	_, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark claim as expired: %w", err)
	}

	return nil
}

// ApproveTx marks a claim approved within an existing transaction, setting
// the verification timestamps and clearing the code and its expiry together.
func (r *ClaimRepository) ApproveTx(tx *sqlx.Tx, id uuid.UUID, approvedAt time.Time, adminNotes *string) error {
	query := `
		UPDATE business_claims
		SET status = 'approved',
		    verification_code = NULL,
		    code_expires_at = NULL,
		    admin_notes = COALESCE($1, admin_notes),
		    verified_at = $2,
		    approved_at = $2,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := tx.Exec(query, adminNotes, approvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to approve claim: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("claim not found")
	}

	return nil
}

// Reject marks a claim rejected, storing the administrative notes and
// clearing any previous approval timestamp.
func (r *ClaimRepository) Reject(id uuid.UUID, adminNotes *string) error {
	query := `
		UPDATE business_claims
		SET status = 'rejected',
		    verification_code = NULL,
		    code_expires_at = NULL,
		    admin_notes = $1,
		    approved_at = NULL,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, adminNotes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reject claim: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("claim not found")
	}

	return nil
}

// ListByUser retrieves all claims for a user, newest first
func (r *ClaimRepository) ListByUser(userID uuid.UUID) ([]*models.BusinessClaim, error) {
	var claims []*models.BusinessClaim

	query := `SELECT ` + claimColumns + ` FROM business_claims WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&claims, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims by user: %w", err)
	}

	return claims, nil
}

// ListByStatus retrieves claims in the given status with pagination,
// oldest first so administrators review the backlog in order.
func (r *ClaimRepository) ListByStatus(status models.ClaimStatus, limit, offset int) ([]*models.BusinessClaim, error) {
	var claims []*models.BusinessClaim

	query := `
		SELECT ` + claimColumns + `
		FROM business_claims
		WHERE status = $1::claim_status
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	err := r.db.Select(&claims, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims by status: %w", err)
	}

	return claims, nil
}

// StatusCount holds a claim count per status
type StatusCount struct {
	Status models.ClaimStatus `db:"status" json:"status"`
	Count  int                `db:"count" json:"count"`
}

// CountByStatus returns claim counts grouped by status
func (r *ClaimRepository) CountByStatus() ([]StatusCount, error) {
	var counts []StatusCount

	query := `SELECT status, COUNT(*) AS count FROM business_claims GROUP BY status`

	err := r.db.Select(&counts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims by status: %w", err)
	}

	return counts, nil
}
