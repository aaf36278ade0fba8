package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/numtrip/numtrip-backend/internal/middleware"
	"github.com/numtrip/numtrip-backend/internal/models"
	"github.com/numtrip/numtrip-backend/internal/services"
	"github.com/numtrip/numtrip-backend/internal/utils"
	"github.com/numtrip/numtrip-backend/pkg/validator"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ClaimHandler handles business claim HTTP requests
type ClaimHandler struct {
	claimService     *services.ClaimService
	rateLimitService *services.RateLimitService
	auditService     *services.AuditService
	contactValidator *validator.ContactValidator
	logger           *logrus.Logger
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(
	claimService *services.ClaimService,
	rateLimitService *services.RateLimitService,
	auditService *services.AuditService,
	contactValidator *validator.ContactValidator,
	logger *logrus.Logger,
) *ClaimHandler {
	return &ClaimHandler{
		claimService:     claimService,
		rateLimitService: rateLimitService,
		auditService:     auditService,
		contactValidator: contactValidator,
		logger:           logger,
	}
}

// StartClaimRequest represents the request to start a business claim
type StartClaimRequest struct {
	VerificationType models.VerificationType `json:"verification_type" binding:"required,oneof=EMAIL SMS PHONE_CALL"`
	ContactValue     string                  `json:"contact_value" binding:"required"`
	ClaimReason      *string                 `json:"claim_reason"`
}

// StartClaimResponse represents the response after starting a claim
type StartClaimResponse struct {
	Message   string                `json:"message"`
	Claim     *models.BusinessClaim `json:"claim"`
	ExpiresAt time.Time             `json:"expires_at"`
	ExpiresIn int                   `json:"expires_in_seconds"`
}

// VerifyClaimRequest represents the request to verify a claim code
type VerifyClaimRequest struct {
	Code string `json:"code" binding:"required"`
}

// StartClaim handles POST /api/v1/businesses/:id/claim
func (h *ClaimHandler) StartClaim(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid business ID",
		})
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req StartClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	contactValue, err := h.validateContact(req.VerificationType, req.ContactValue)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_contact",
			Message: err.Error(),
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if !h.enforceClaimRateLimit(c, userID, clientIP, userAgent) {
		return
	}

	claim, err := h.claimService.StartClaim(services.StartClaimParams{
		BusinessID:       businessID,
		UserID:           userID,
		VerificationType: req.VerificationType,
		ContactValue:     contactValue,
		ClaimReason:      req.ClaimReason,
		IPAddress:        clientIP,
		UserAgent:        userAgent,
	})
	if err != nil {
		respondClaimError(c, h.logger, err)
		return
	}

	if err := h.rateLimitService.RecordClaimRequest(userID.String(), clientIP); err != nil {
		// The claim is already started; rate limit bookkeeping failure is non-fatal
		c.Error(err)
	}

	h.respondStarted(c, claim, "Verification code sent")
}

// ResendCode handles POST /api/v1/claims/:id/resend
// Reinitiates a pending claim with a fresh code; the same validations as
// StartClaim apply.
func (h *ClaimHandler) ResendCode(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid claim ID",
		})
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	// A resend dispatches a fresh code just like a fresh start, so it
	// consumes the same per-user and per-IP budget.
	if !h.enforceClaimRateLimit(c, userID, clientIP, userAgent) {
		return
	}

	existing, err := h.claimService.GetClaim(claimID, &userID)
	if err != nil {
		respondClaimError(c, h.logger, err)
		return
	}

	claim, err := h.claimService.ResendVerificationCode(services.StartClaimParams{
		BusinessID:       existing.BusinessID,
		UserID:           userID,
		VerificationType: existing.VerificationType,
		ContactValue:     existing.ContactValue,
		ClaimReason:      existing.ClaimReason,
		IPAddress:        clientIP,
		UserAgent:        userAgent,
	})
	if err != nil {
		respondClaimError(c, h.logger, err)
		return
	}

	if err := h.rateLimitService.RecordClaimRequest(userID.String(), clientIP); err != nil {
		// The code is already dispatched; rate limit bookkeeping failure is non-fatal
		c.Error(err)
	}

	h.respondStarted(c, claim, "Verification code resent")
}

// VerifyClaim handles POST /api/v1/claims/:id/verify
// Callable by anyone holding the code; no authentication required.
func (h *ClaimHandler) VerifyClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid claim ID",
		})
		return
	}

	var req VerifyClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	claim, err := h.claimService.VerifyClaim(claimID, req.Code, utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		respondClaimError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Claim verified and approved",
		"claim":   claim,
	})
}

// GetClaim handles GET /api/v1/claims/:id
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid claim ID",
		})
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	claim, err := h.claimService.GetClaim(claimID, &userID)
	if err != nil {
		respondClaimError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// GetUserClaims handles GET /api/v1/claims
func (h *ClaimHandler) GetUserClaims(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	claims, err := h.claimService.GetUserClaims(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list claims",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claims": claims,
		"count":  len(claims),
	})
}

// GetUserBusinesses handles GET /api/v1/user/businesses
func (h *ClaimHandler) GetUserBusinesses(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	businesses, err := h.claimService.GetUserBusinesses(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list businesses",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
	})
}

// enforceClaimRateLimit applies the per-user and per-IP claim throttle to
// every code-dispatching request. It writes the error response itself and
// reports whether the request may proceed.
func (h *ClaimHandler) enforceClaimRateLimit(c *gin.Context, userID uuid.UUID, clientIP, userAgent string) bool {
	err := h.rateLimitService.CheckClaimRateLimit(userID.String(), clientIP)
	if err == nil {
		return true
	}

	var rateLimitErr *services.RateLimitError
	if errors.As(err, &rateLimitErr) {
		h.auditService.LogRateLimitViolation(userID, clientIP, userAgent, rateLimitErr.Type, rateLimitErr.RetryAfter)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateLimitErr.Message,
			"retry_after": rateLimitErr.RetryAfter,
			"type":        rateLimitErr.Type,
		})
		return false
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "rate_limit_check_failed",
		Message: "Failed to check rate limit",
	})
	return false
}

func (h *ClaimHandler) validateContact(verificationType models.VerificationType, contactValue string) (string, error) {
	if verificationType == models.VerificationEmail {
		return h.contactValidator.ValidateEmail(contactValue)
	}
	return h.contactValidator.ValidatePhone(contactValue)
}

func (h *ClaimHandler) respondStarted(c *gin.Context, claim *models.BusinessClaim, message string) {
	expiresIn := 0
	expiresAt := time.Time{}
	if claim.CodeExpiresAt != nil {
		expiresAt = *claim.CodeExpiresAt
		expiresIn = int(time.Until(expiresAt).Seconds())
	}

	c.JSON(http.StatusOK, StartClaimResponse{
		Message:   message,
		Claim:     claim,
		ExpiresAt: expiresAt,
		ExpiresIn: expiresIn,
	})
}

// respondClaimError maps claim service failures to HTTP status codes
func respondClaimError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrBusinessNotFound), errors.Is(err, services.ErrClaimNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrBusinessAlreadyClaimed),
		errors.Is(err, services.ErrClaimAlreadyActive),
		errors.Is(err, services.ErrOwnershipConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrContactMismatch),
		errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrCodeInvalid),
		errors.Is(err, services.ErrClaimNotPending),
		errors.Is(err, services.ErrNotificationFailed),
		errors.Is(err, services.ErrInvalidAdminAction):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	default:
		logger.WithError(err).Error("Unexpected claim operation failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}
