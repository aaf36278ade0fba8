package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/middleware"
	"github.com/numtrip/numtrip-backend/internal/models"
)

// PromoCodeHandler handles promo code HTTP requests
type PromoCodeHandler struct {
	promoRepo    *database.PromoCodeRepository
	businessRepo *database.BusinessRepository
	logger       *logrus.Logger
}

// NewPromoCodeHandler creates a new promo code handler
func NewPromoCodeHandler(promoRepo *database.PromoCodeRepository, businessRepo *database.BusinessRepository, logger *logrus.Logger) *PromoCodeHandler {
	return &PromoCodeHandler{
		promoRepo:    promoRepo,
		businessRepo: businessRepo,
		logger:       logger,
	}
}

// CreatePromoCodeRequest represents the request to publish a promo code
type CreatePromoCodeRequest struct {
	Code            string     `json:"code" binding:"required,min=3,max=32"`
	Description     *string    `json:"description"`
	DiscountPercent int        `json:"discount_percent" binding:"required,min=1,max=100"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
}

// CreatePromoCode handles POST /api/v1/businesses/:id/promo-codes
// Only the owner of the business may publish promo codes for it.
func (h *PromoCodeHandler) CreatePromoCode(c *gin.Context) {
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

	var req CreatePromoCodeRequest
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
			Message: "Failed to create promo code",
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

	if business.OwnerID == nil || *business.OwnerID != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Only the business owner can publish promo codes",
		})
		return
	}

	validFrom := time.Now()
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil && req.ValidUntil.Before(validFrom) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "valid_until must be after valid_from",
		})
		return
	}

	promo := &models.PromoCode{
		BusinessID:      businessID,
		Code:            req.Code,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		ValidFrom:       validFrom,
		ValidUntil:      req.ValidUntil,
		Active:          true,
	}

	if err := h.promoRepo.Create(promo); err != nil {
		h.logger.WithError(err).Error("Failed to create promo code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create promo code",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Promo code created",
		"promo_code": promo,
	})
}

// UpdatePromoCodeRequest represents the request to edit a promo code.
// Omitted fields keep their current values.
type UpdatePromoCodeRequest struct {
	Code            *string    `json:"code" binding:"omitempty,min=3,max=32"`
	Description     *string    `json:"description"`
	DiscountPercent *int       `json:"discount_percent" binding:"omitempty,min=1,max=100"`
	ValidFrom       *time.Time `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	Active          *bool      `json:"active"`
}

// UpdatePromoCode handles PUT /api/v1/businesses/:id/promo-codes/:promoId
// Only the owner of the business may edit its promo codes.
func (h *PromoCodeHandler) UpdatePromoCode(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid business ID",
		})
		return
	}

	promoID, err := uuid.Parse(c.Param("promoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid promo code ID",
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

	var req UpdatePromoCodeRequest
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
			Message: "Failed to update promo code",
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

	if business.OwnerID == nil || *business.OwnerID != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Only the business owner can edit promo codes",
		})
		return
	}

	promo, err := h.promoRepo.GetByID(promoID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get promo code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update promo code",
		})
		return
	}
	if promo == nil || promo.BusinessID != businessID {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Promo code not found",
		})
		return
	}

	if req.Code != nil {
		promo.Code = *req.Code
	}
	if req.Description != nil {
		promo.Description = req.Description
	}
	if req.DiscountPercent != nil {
		promo.DiscountPercent = *req.DiscountPercent
	}
	if req.ValidFrom != nil {
		promo.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		promo.ValidUntil = req.ValidUntil
	}
	if req.Active != nil {
		promo.Active = *req.Active
	}

	if promo.ValidUntil != nil && promo.ValidUntil.Before(promo.ValidFrom) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "valid_until must be after valid_from",
		})
		return
	}

	if err := h.promoRepo.Update(promo); err != nil {
		h.logger.WithError(err).Error("Failed to update promo code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update promo code",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Promo code updated",
		"promo_code": promo,
	})
}

// DeactivatePromoCode handles DELETE /api/v1/admin/promo-codes/:id
func (h *PromoCodeHandler) DeactivatePromoCode(c *gin.Context) {
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid promo code ID",
		})
		return
	}

	promo, err := h.promoRepo.GetByID(promoID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get promo code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to deactivate promo code",
		})
		return
	}
	if promo == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Promo code not found",
		})
		return
	}

	if err := h.promoRepo.Deactivate(promoID); err != nil {
		h.logger.WithError(err).Error("Failed to deactivate promo code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to deactivate promo code",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Promo code deactivated"})
}
