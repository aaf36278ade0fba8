package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/utils"
)

// AuditService records security-relevant claim events
type AuditService struct {
	db      database.DB
	enabled bool
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB, enabled bool) *AuditService {
	return &AuditService{
		db:      db,
		enabled: enabled,
	}
}

// AuditEvent represents a security event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID             // Acting user (nil for anonymous verification attempts)
	Action     string                 // e.g. "claim_started", "claim_verify_success"
	EntityType string                 // e.g. "claim", "business"
	EntityID   *uuid.UUID             // Affected entity
	IPAddress  string                 // Client IP address
	UserAgent  string                 // Client user agent
	Details    map[string]interface{} // Additional details stored as JSONB
}

// LogClaimStarted logs a claim initiation attempt
func (s *AuditService) LogClaimStarted(userID, businessID uuid.UUID, verificationType, ipAddress, userAgent string, success bool, reason string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"verification_type": verificationType,
		"success":           success,
		"device_info":       deviceInfo,
	}
	if reason != "" {
		details["reason"] = reason
	}

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     "claim_started",
		EntityType: "business",
		EntityID:   &businessID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogClaimVerification logs a code verification attempt
func (s *AuditService) LogClaimVerification(userID, claimID uuid.UUID, success bool, ipAddress, userAgent, failureReason string) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	details := map[string]interface{}{
		"success":     success,
		"device_info": deviceInfo,
	}
	if !success && failureReason != "" {
		details["failure_reason"] = failureReason
	}

	action := "claim_verify_failed"
	if success {
		action = "claim_verify_success"
	}

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     action,
		EntityType: "claim",
		EntityID:   &claimID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogAdminClaimAction logs an administrative decision on a claim
func (s *AuditService) LogAdminClaimAction(adminID, claimID uuid.UUID, action string) error {
	return s.logEvent(AuditEvent{
		UserID:     &adminID,
		Action:     "admin_claim_" + action,
		EntityType: "claim",
		EntityID:   &claimID,
		Details: map[string]interface{}{
			"action": action,
		},
	})
}

// LogRateLimitViolation logs a claim-start rate limit violation
func (s *AuditService) LogRateLimitViolation(userID uuid.UUID, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	deviceInfo := utils.ParseUserAgent(userAgent)

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     "claim_rate_limit_exceeded",
		EntityType: "claim",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"limit_type":  limitType,
			"retry_after": retryAfter,
			"device_info": deviceInfo,
		},
	})
}

// logEvent persists an audit event
func (s *AuditService) logEvent(event AuditEvent) error {
	if !s.enabled {
		return nil
	}

	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.Exec(
		query,
		uuid.New(),
		event.UserID,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		detailsJSON,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}
