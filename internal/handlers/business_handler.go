package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/middleware"
	"github.com/numtrip/numtrip-backend/internal/models"
)

// BusinessHandler handles business directory HTTP requests
type BusinessHandler struct {
	businessRepo   *database.BusinessRepository
	validationRepo *database.ValidationRepository
	promoRepo      *database.PromoCodeRepository
	logger         *logrus.Logger
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(
	businessRepo *database.BusinessRepository,
	validationRepo *database.ValidationRepository,
	promoRepo *database.PromoCodeRepository,
	logger *logrus.Logger,
) *BusinessHandler {
	return &BusinessHandler{
		businessRepo:   businessRepo,
		validationRepo: validationRepo,
		promoRepo:      promoRepo,
		logger:         logger,
	}
}

// ListBusinesses handles GET /api/v1/businesses
func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	city := c.Query("city")
	category := c.Query("category")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	businesses, err := h.businessRepo.List(city, category, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list businesses")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list businesses",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
		"limit":      limit,
		"offset":     offset,
	})
}

// GetBusiness handles GET /api/v1/businesses/:id
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid business ID",
		})
		return
	}

	business, err := h.businessRepo.GetByID(businessID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get business")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get business",
		})
		return
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Business not found",
		})
		return
	}

	validations, err := h.validationRepo.CountByBusiness(businessID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count validations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get business",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business":    business,
		"validations": validations,
	})
}

// CreateValidationRequest represents a community contact validation vote
type CreateValidationRequest struct {
	Field models.ValidationField `json:"field" binding:"required,oneof=email phone whatsapp"`
	Valid *bool                  `json:"valid" binding:"required"`
}

// CreateValidation handles POST /api/v1/businesses/:id/validations
func (h *BusinessHandler) CreateValidation(c *gin.Context) {
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

	var req CreateValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	business, err := h.businessRepo.GetByID(businessID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get business")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to record validation",
		})
		return
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Business not found",
		})
		return
	}

	validation := &models.ContactValidation{
		BusinessID: businessID,
		UserID:     userID,
		Field:      req.Field,
		Valid:      *req.Valid,
	}

	if err := h.validationRepo.Upsert(validation); err != nil {
		h.logger.WithError(err).Error("Failed to record validation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to record validation",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Validation recorded",
		"validation": validation,
	})
}

// ListPromoCodes handles GET /api/v1/businesses/:id/promo-codes
func (h *BusinessHandler) ListPromoCodes(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid business ID",
		})
		return
	}

	promos, err := h.promoRepo.ListByBusiness(businessID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list promo codes")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list promo codes",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"promo_codes": promos,
		"count":       len(promos),
	})
}
