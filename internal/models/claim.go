package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus represents the lifecycle state of a business claim
// Matches PostgreSQL ENUM: claim_status
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"  // Code issued, awaiting submission
	ClaimStatusApproved ClaimStatus = "approved" // Terminal: ownership granted
	ClaimStatusRejected ClaimStatus = "rejected" // Terminal: administrative denial
	ClaimStatusExpired  ClaimStatus = "expired"  // Terminal: code timed out, re-initiation required
)

// VerificationType is the channel used to prove control of a business contact
// Matches PostgreSQL ENUM: verification_type
type VerificationType string

const (
	VerificationEmail     VerificationType = "EMAIL"
	VerificationSMS       VerificationType = "SMS"
	VerificationPhoneCall VerificationType = "PHONE_CALL"
)

// BusinessClaim represents a user's assertion of ownership over a business.
// At most one row exists per (business_id, user_id); re-initiation updates
// the row in place.
type BusinessClaim struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	BusinessID       uuid.UUID        `db:"business_id" json:"business_id"`
	UserID           uuid.UUID        `db:"user_id" json:"user_id"`
	Status           ClaimStatus      `db:"status" json:"status"`
	VerificationType VerificationType `db:"verification_type" json:"verification_type"`
	ContactValue     string           `db:"contact_value" json:"contact_value"`
	VerificationCode *string          `db:"verification_code" json:"-"`
	CodeExpiresAt    *time.Time       `db:"code_expires_at" json:"code_expires_at,omitempty"`
	ClaimReason      *string          `db:"claim_reason" json:"claim_reason,omitempty"`
	AdminNotes       *string          `db:"admin_notes" json:"admin_notes,omitempty"`
	IPAddress        string           `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent        string           `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
	VerifiedAt       *time.Time       `db:"verified_at" json:"verified_at,omitempty"`
	ApprovedAt       *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
}

// IsTerminal reports whether the claim is in a terminal state
func (c *BusinessClaim) IsTerminal() bool {
	return c.Status == ClaimStatusApproved ||
		c.Status == ClaimStatusRejected ||
		c.Status == ClaimStatusExpired
}

// AdminClaimAction is an administrative decision on a claim
type AdminClaimAction string

const (
	AdminActionApprove AdminClaimAction = "APPROVE"
	AdminActionReject  AdminClaimAction = "REJECT"
)
