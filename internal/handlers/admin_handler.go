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
	"github.com/numtrip/numtrip-backend/internal/services"
)

// AdminHandler handles the admin review and dashboard HTTP requests
type AdminHandler struct {
	claimService  *services.ClaimService
	importService *services.ImportService
	claimRepo     *database.ClaimRepository
	businessRepo  *database.BusinessRepository
	logger        *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	claimService *services.ClaimService,
	importService *services.ImportService,
	claimRepo *database.ClaimRepository,
	businessRepo *database.BusinessRepository,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		claimService:  claimService,
		importService: importService,
		claimRepo:     claimRepo,
		businessRepo:  businessRepo,
		logger:        logger,
	}
}

// ListClaims handles GET /api/v1/admin/claims?status=pending
func (h *AdminHandler) ListClaims(c *gin.Context) {
	status := models.ClaimStatus(c.DefaultQuery("status", string(models.ClaimStatusPending)))
	switch status {
	case models.ClaimStatusPending, models.ClaimStatusApproved, models.ClaimStatusRejected, models.ClaimStatusExpired:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid claim status",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	claims, err := h.claimRepo.ListByStatus(status, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list claims")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list claims",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claims": claims,
		"limit":  limit,
		"offset": offset,
	})
}

// ActionClaimRequest represents the admin approve/reject request
type ActionClaimRequest struct {
	Action     models.AdminClaimAction `json:"action" binding:"required,oneof=APPROVE REJECT"`
	AdminNotes *string                 `json:"admin_notes"`
}

// ActionClaim handles POST /api/v1/admin/claims/:id/action
func (h *AdminHandler) ActionClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid claim ID",
		})
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req ActionClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	claim, err := h.claimService.AdminActionClaim(claimID, req.Action, req.AdminNotes, adminID)
	if err != nil {
		respondClaimError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Claim updated",
		"claim":   claim,
	})
}

// GetDashboardStats handles GET /api/v1/admin/dashboard
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.businessRepo.GetDashboardStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get dashboard stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get dashboard stats",
		})
		return
	}

	counts, err := h.claimRepo.CountByStatus()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count claims")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get dashboard stats",
		})
		return
	}

	claimsByStatus := make(map[string]int, len(counts))
	for _, sc := range counts {
		claimsByStatus[string(sc.Status)] = sc.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses":       stats,
		"claims_by_status": claimsByStatus,
	})
}

// TriggerImportRequest represents the request to run a Places import
type TriggerImportRequest struct {
	City           string                  `json:"city" binding:"required"`
	Category       models.BusinessCategory `json:"category" binding:"required,oneof=hotel restaurant tour transport attraction"`
	Limit          int                     `json:"limit" binding:"omitempty,min=1,max=200"`
	SkipDuplicates bool                    `json:"skip_duplicates"`
}

// TriggerImport handles POST /api/v1/admin/import
func (h *AdminHandler) TriggerImport(c *gin.Context) {
	var req TriggerImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	summary, err := h.importService.Run(services.ImportParams{
		City:           req.City,
		Category:       req.Category,
		Limit:          req.Limit,
		SkipDuplicates: req.SkipDuplicates,
	})
	if err != nil {
		h.logger.WithError(err).Error("Import run failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Import run failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Import completed",
		"summary": summary,
	})
}
