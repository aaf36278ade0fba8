package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/models"
	"github.com/numtrip/numtrip-backend/pkg/notify"
)

const (
	// DefaultCodeLength is the number of digits in a verification code
	DefaultCodeLength = 6

	// DefaultCodeTTL is how long a verification code is valid
	DefaultCodeTTL = 1 * time.Hour
)

var (
	// ErrBusinessNotFound indicates the referenced business does not exist
	ErrBusinessNotFound = errors.New("business not found")

	// ErrClaimNotFound indicates the referenced claim does not exist
	ErrClaimNotFound = errors.New("claim not found")

	// ErrBusinessAlreadyClaimed indicates the business is owned by another user
	ErrBusinessAlreadyClaimed = errors.New("business already claimed by another user")

	// ErrClaimAlreadyActive indicates the user already holds a pending or approved claim
	ErrClaimAlreadyActive = errors.New("you already have an active claim for this business")

	// ErrContactMismatch indicates the asserted contact does not match the business record
	ErrContactMismatch = errors.New("contact value does not match the business contact information")

	// ErrCodeExpired indicates the verification code has expired
	ErrCodeExpired = errors.New("verification code has expired")

	// ErrCodeInvalid indicates the submitted code is incorrect
	ErrCodeInvalid = errors.New("invalid verification code")

	// ErrClaimNotPending indicates the claim is not in a verifiable state
	ErrClaimNotPending = errors.New("claim is not in a verifiable state")

	// ErrNotificationFailed indicates the verification code could not be dispatched
	ErrNotificationFailed = errors.New("failed to send verification code")

	// ErrOwnershipConflict indicates a concurrent claimant was approved first
	ErrOwnershipConflict = errors.New("business ownership was assigned to another claimant")

	// ErrInvalidAdminAction indicates an unrecognized administrative action
	ErrInvalidAdminAction = errors.New("invalid admin action")
)

// ClaimEvent is an input to the claim state machine
type ClaimEvent string

const (
	EventReinitiate   ClaimEvent = "reinitiate"    // New StartClaim/resend overwriting the row
	EventCodeVerified ClaimEvent = "code_verified" // Self-serve code check succeeded
	EventCodeExpired  ClaimEvent = "code_expired"  // Lazy expiry detected at verification time
	EventAdminApprove ClaimEvent = "admin_approve" // Administrative approval (any state)
	EventAdminReject  ClaimEvent = "admin_reject"  // Administrative rejection (any state)
)

// claimTransitions is the explicit transition table of the claim lifecycle.
// Self-serve verification and administrative action are alternative edges
// into the same terminal states. Administrative events are accepted from
// every state: the admin path is the escape hatch for PHONE_CALL claims
// that never go through code verification.
var claimTransitions = map[models.ClaimStatus]map[ClaimEvent]models.ClaimStatus{
	models.ClaimStatusPending: {
		EventCodeVerified: models.ClaimStatusApproved,
		EventCodeExpired:  models.ClaimStatusExpired,
		EventAdminApprove: models.ClaimStatusApproved,
		EventAdminReject:  models.ClaimStatusRejected,
		EventReinitiate:   models.ClaimStatusPending,
	},
	models.ClaimStatusExpired: {
		EventReinitiate:   models.ClaimStatusPending,
		EventAdminApprove: models.ClaimStatusApproved,
		EventAdminReject:  models.ClaimStatusRejected,
	},
	models.ClaimStatusRejected: {
		EventReinitiate:   models.ClaimStatusPending,
		EventAdminApprove: models.ClaimStatusApproved,
		EventAdminReject:  models.ClaimStatusRejected,
	},
	models.ClaimStatusApproved: {
		EventAdminApprove: models.ClaimStatusApproved,
		EventAdminReject:  models.ClaimStatusRejected,
	},
}

// NextClaimStatus resolves a (state, event) pair against the transition table
func NextClaimStatus(current models.ClaimStatus, event ClaimEvent) (models.ClaimStatus, error) {
	events, ok := claimTransitions[current]
	if !ok {
		return "", fmt.Errorf("unknown claim status: %s", current)
	}
	next, ok := events[event]
	if !ok {
		return "", fmt.Errorf("event %s not allowed in status %s", event, current)
	}
	return next, nil
}

// ClaimService manages the business-claim verification lifecycle
type ClaimService struct {
	db         database.DB
	claims     *database.ClaimRepository
	businesses *database.BusinessRepository
	notifier   notify.Notifier
	audit      *AuditService
	logger     *logrus.Logger
	codeLength int
	codeTTL    time.Duration
}

// NewClaimService creates a new claim service
func NewClaimService(
	db database.DB,
	claims *database.ClaimRepository,
	businesses *database.BusinessRepository,
	notifier notify.Notifier,
	audit *AuditService,
	logger *logrus.Logger,
	codeLength int,
	codeTTL time.Duration,
) *ClaimService {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &ClaimService{
		db:         db,
		claims:     claims,
		businesses: businesses,
		notifier:   notifier,
		audit:      audit,
		logger:     logger,
		codeLength: codeLength,
		codeTTL:    codeTTL,
	}
}

// StartClaimParams holds the inputs of a claim initiation
type StartClaimParams struct {
	BusinessID       uuid.UUID
	UserID           uuid.UUID
	VerificationType models.VerificationType
	ContactValue     string
	ClaimReason      *string
	IPAddress        string
	UserAgent        string
}

// StartClaim initiates a claim for a (business, user) pair. A pending or
// approved claim by the same user conflicts; expired and rejected claims
// are overwritten in place.
func (s *ClaimService) StartClaim(params StartClaimParams) (*models.BusinessClaim, error) {
	return s.initiate(params, false)
}

// ResendVerificationCode reinitiates a pending claim with a fresh code.
// This is the explicit resend path: unlike StartClaim it treats an existing
// pending claim by the same user as a reinitiation rather than a conflict.
func (s *ClaimService) ResendVerificationCode(params StartClaimParams) (*models.BusinessClaim, error) {
	return s.initiate(params, true)
}

func (s *ClaimService) initiate(params StartClaimParams, resend bool) (*models.BusinessClaim, error) {
	business, err := s.businesses.GetByID(params.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}

	if business.OwnerID != nil && *business.OwnerID != params.UserID {
		return nil, ErrBusinessAlreadyClaimed
	}

	existing, err := s.claims.GetByBusinessAndUser(params.BusinessID, params.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.ClaimStatusApproved:
			return nil, ErrClaimAlreadyActive
		case models.ClaimStatusPending:
			if !resend {
				return nil, ErrClaimAlreadyActive
			}
		}
		if _, err := NextClaimStatus(existing.Status, EventReinitiate); err != nil {
			return nil, ErrClaimAlreadyActive
		}
	}

	if !contactMatches(business, params.VerificationType, params.ContactValue) {
		return nil, ErrContactMismatch
	}

	code, err := generateVerificationCode(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiresAt := time.Now().Add(s.codeTTL)

	claim := &models.BusinessClaim{
		BusinessID:       params.BusinessID,
		UserID:           params.UserID,
		Status:           models.ClaimStatusPending,
		VerificationType: params.VerificationType,
		ContactValue:     params.ContactValue,
		VerificationCode: &code,
		CodeExpiresAt:    &expiresAt,
		ClaimReason:      params.ClaimReason,
		IPAddress:        params.IPAddress,
		UserAgent:        params.UserAgent,
	}

	if err := s.claims.Upsert(claim); err != nil {
		return nil, err
	}

	if err := s.dispatchCode(business, claim, code); err != nil {
		// The row is already pending with the fresh code; a retried start
		// simply overwrites it, so no compensating write is needed here.
		s.audit.LogClaimStarted(params.UserID, params.BusinessID, string(params.VerificationType), params.IPAddress, params.UserAgent, false, "dispatch_failed")
		return nil, ErrNotificationFailed
	}

	s.audit.LogClaimStarted(params.UserID, params.BusinessID, string(params.VerificationType), params.IPAddress, params.UserAgent, true, "")

	return claim, nil
}

// dispatchCode routes the verification code through the channel matching
// the verification type. SMS and PHONE_CALL are accepted but not wired to
// a real sender; they report success so the state machine contract holds
// when a gateway is added.
func (s *ClaimService) dispatchCode(business *models.Business, claim *models.BusinessClaim, code string) error {
	switch claim.VerificationType {
	case models.VerificationEmail:
		return s.notifier.SendVerificationCode(claim.ContactValue, code, business.Name)
	case models.VerificationSMS, models.VerificationPhoneCall:
		s.logger.WithFields(logrus.Fields{
			"business_id":       business.ID,
			"verification_type": claim.VerificationType,
		}).Info("Non-email verification dispatch stubbed")
		return nil
	default:
		return fmt.Errorf("unsupported verification type: %s", claim.VerificationType)
	}
}

// VerifyClaim checks a submitted code against a pending claim. On success
// the claim is approved and business ownership is assigned in a single
// transaction; on expiry the claim transitions to expired before the
// failure is returned.
func (s *ClaimService) VerifyClaim(claimID uuid.UUID, submittedCode, ipAddress, userAgent string) (*models.BusinessClaim, error) {
	claim, err := s.claims.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}

	if claim.Status != models.ClaimStatusPending {
		return nil, ErrClaimNotPending
	}

	now := time.Now()
	if codeExpired(now, claim.CodeExpiresAt) {
		if _, err := NextClaimStatus(claim.Status, EventCodeExpired); err != nil {
			return nil, err
		}
		if err := s.claims.MarkExpired(claim.ID); err != nil {
			return nil, err
		}
		s.audit.LogClaimVerification(claim.UserID, claim.ID, false, ipAddress, userAgent, "code_expired")
		return nil, ErrCodeExpired
	}

	if claim.VerificationCode == nil || *claim.VerificationCode != submittedCode {
		// No state change and no attempt counter: retries are allowed
		// until the code expires.
		s.audit.LogClaimVerification(claim.UserID, claim.ID, false, ipAddress, userAgent, "code_mismatch")
		return nil, ErrCodeInvalid
	}

	if _, err := NextClaimStatus(claim.Status, EventCodeVerified); err != nil {
		return nil, err
	}

	if err := s.approveAndAssignOwner(claim, now, nil); err != nil {
		return nil, err
	}

	s.audit.LogClaimVerification(claim.UserID, claim.ID, true, ipAddress, userAgent, "")
	s.sendApprovalNotice(claim)

	return s.claims.GetByID(claim.ID)
}

// AdminActionClaim applies an administrative approve/reject decision. It is
// accepted from any state, including terminal ones: manual review of
// PHONE_CALL claims never passes through VerifyClaim.
func (s *ClaimService) AdminActionClaim(claimID uuid.UUID, action models.AdminClaimAction, adminNotes *string, adminID uuid.UUID) (*models.BusinessClaim, error) {
	claim, err := s.claims.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}

	switch action {
	case models.AdminActionApprove:
		if _, err := NextClaimStatus(claim.Status, EventAdminApprove); err != nil {
			return nil, err
		}
		if err := s.approveAndAssignOwner(claim, time.Now(), adminNotes); err != nil {
			return nil, err
		}
		if claim.VerificationType == models.VerificationEmail {
			s.sendApprovalNotice(claim)
		}
	case models.AdminActionReject:
		if _, err := NextClaimStatus(claim.Status, EventAdminReject); err != nil {
			return nil, err
		}
		if err := s.claims.Reject(claim.ID, adminNotes); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidAdminAction
	}

	s.audit.LogAdminClaimAction(adminID, claim.ID, string(action))

	return s.claims.GetByID(claim.ID)
}

// approveAndAssignOwner commits the two-entity approval side effect as one
// unit of work: the claim row and the business ownership either both change
// or neither does.
func (s *ClaimService) approveAndAssignOwner(claim *models.BusinessClaim, approvedAt time.Time, adminNotes *string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.claims.ApproveTx(tx, claim.ID, approvedAt, adminNotes); err != nil {
		tx.Rollback()
		return err
	}

	if err := s.businesses.AssignOwnerTx(tx, claim.BusinessID, claim.UserID, approvedAt); err != nil {
		tx.Rollback()
		if errors.Is(err, database.ErrOwnershipTaken) {
			return ErrOwnershipConflict
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}

	return nil
}

// sendApprovalNotice dispatches the post-approval notification.
// Best effort: the approval is already committed, so a failure here is
// logged and never surfaced to the caller.
func (s *ClaimService) sendApprovalNotice(claim *models.BusinessClaim) {
	if claim.VerificationType != models.VerificationEmail {
		return
	}

	// The notice renders the business name into the message body.
	business, err := s.businesses.GetByID(claim.BusinessID)
	if err != nil || business == nil {
		s.logger.WithFields(logrus.Fields{
			"claim_id":    claim.ID,
			"business_id": claim.BusinessID,
		}).WithError(err).Warn("Failed to load business for approval notification")
		return
	}

	if err := s.notifier.SendApprovalNotice(claim.ContactValue, business.Name); err != nil {
		s.logger.WithFields(logrus.Fields{
			"claim_id":    claim.ID,
			"business_id": claim.BusinessID,
		}).WithError(err).Warn("Failed to send approval notification")
	}
}

// GetClaim retrieves a claim, optionally scoped to a user. A claim owned by
// a different user is reported as not found rather than forbidden.
func (s *ClaimService) GetClaim(claimID uuid.UUID, userID *uuid.UUID) (*models.BusinessClaim, error) {
	claim, err := s.claims.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	if userID != nil && claim.UserID != *userID {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

// GetUserClaims retrieves all claims for a user, newest first
func (s *ClaimService) GetUserClaims(userID uuid.UUID) ([]*models.BusinessClaim, error) {
	return s.claims.ListByUser(userID)
}

// GetUserBusinesses retrieves the businesses owned by a user with
// aggregated community validation counts.
func (s *ClaimService) GetUserBusinesses(userID uuid.UUID) ([]*models.OwnedBusiness, error) {
	return s.businesses.ListByOwner(userID)
}

// codeExpired reports whether a code is no longer usable at the given
// instant. The expiry timestamp itself is already expired: a code valid
// until T fails at T, not at T plus one tick.
func codeExpired(now time.Time, expiresAt *time.Time) bool {
	return expiresAt == nil || !now.Before(*expiresAt)
}

// contactMatches checks the asserted contact against the business's own
// contact fields for the given channel. Matches are exact and
// case-sensitive.
func contactMatches(business *models.Business, verificationType models.VerificationType, contactValue string) bool {
	if contactValue == "" {
		return false
	}
	switch verificationType {
	case models.VerificationEmail:
		return business.Email != nil && *business.Email == contactValue
	case models.VerificationSMS, models.VerificationPhoneCall:
		if business.Phone != nil && *business.Phone == contactValue {
			return true
		}
		return business.Whatsapp != nil && *business.Whatsapp == contactValue
	default:
		return false
	}
}

// generateVerificationCode generates a cryptographically secure random
// numeric code of the given width, zero-padded.
func generateVerificationCode(length int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", length, n), nil
}
