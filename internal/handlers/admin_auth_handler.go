package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/middleware"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/services"
)

// AdminAuthHandler handles staff authentication HTTP requests
type AdminAuthHandler struct {
	adminAuthService *services.AdminAuthService
	logger           *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminAuthService *services.AdminAuthService, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminAuthService: adminAuthService,
		logger:           logger,
	}
}

// Login handles staff login requests
// @Summary Staff login
// @Description Authenticate a staff user and return an access token
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.StaffLoginRequest true "Login credentials"
// @Success 200 {object} models.StaffLoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/auth/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	response, err := h.adminAuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"error": err.Error(),
		}).Warn("Staff login failed")

		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrAccountInactive) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login is temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetProfile retrieves the current staff user's profile
func (h *AdminAuthHandler) GetProfile(c *gin.Context) {
	staffCtx, exists := middleware.GetStaffContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.adminAuthService.GetProfile(c.Request.Context(), staffCtx.StaffID)
	if err != nil {
		if errors.Is(err, models.ErrStaffUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staff user not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load staff profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}
