package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/numtrip/numtrip-backend/internal/database"
)

// RateLimitService throttles claim-start requests per user and per IP
type RateLimitService struct {
	db     database.DB
	config RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxUserRequests int           // Max claim starts per user
	UserWindow      time.Duration // Time window for the user limit
	MaxIPRequests   int           // Max claim starts per IP
	IPWindow        time.Duration // Time window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxUserRequests: 5,
		UserWindow:      1 * time.Hour,
		MaxIPRequests:   20,
		IPWindow:        1 * time.Hour,
	}
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, config RateLimitConfig) *RateLimitService {
	if config.MaxUserRequests <= 0 {
		config = DefaultRateLimitConfig()
	}
	return &RateLimitService{
		db:     db,
		config: config,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "user" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckClaimRateLimit checks whether a user or IP has exceeded the claim
// start limits.
func (s *RateLimitService) CheckClaimRateLimit(userID, ip string) error {
	if userID != "" {
		count, lastRequest, err := s.getRequestCount(userID, "user", s.config.UserWindow)
		if err != nil {
			return fmt.Errorf("failed to check user rate limit: %w", err)
		}

		if count >= s.config.MaxUserRequests {
			retryAfter := lastRequest.Add(s.config.UserWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many claim attempts. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "user",
			}
		}
	}

	if ip != "" {
		count, lastRequest, err := s.getRequestCount(ip, "ip", s.config.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= s.config.MaxIPRequests {
			retryAfter := lastRequest.Add(s.config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many claim attempts from this address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getRequestCount gets the number of requests within the time window
func (s *RateLimitService) getRequestCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM claim_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

// RecordClaimRequest records a claim start for rate limiting
func (s *RateLimitService) RecordClaimRequest(userID, ip string) error {
	if userID != "" {
		if err := s.recordRequest(userID, "user"); err != nil {
			return fmt.Errorf("failed to record user request: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordRequest(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP request: %w", err)
		}
	}

	return nil
}

func (s *RateLimitService) recordRequest(identifier, identifierType string) error {
	query := `
		INSERT INTO claim_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.db.Exec(query, identifier, identifierType, time.Now())
	return err
}

// CleanupOldRecords removes rate limit records older than the given duration
func (s *RateLimitService) CleanupOldRecords(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM claim_rate_limits
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limit records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
