package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/services"
	"github.com/cretedrive/rental-booking-backend/internal/utils"
)

// CheckoutHandler handles payment session creation
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	logger          *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *services.CheckoutService, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// CreateSession handles POST /api/checkout
// @Summary Create checkout session
// @Description Reconcile the booking to pending and open a Stripe Checkout session for it
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body models.CheckoutRequest true "Customer, car, booking and amount"
// @Success 200 {object} models.CheckoutResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /checkout [post]
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": services.BindingError(err).Error(), "code": "VALIDATION_ERROR"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "code": "INVALID_BODY"})
		return
	}
	req.Source = utils.SubmissionSourceFromRequest(c)

	resp, err := h.checkoutService.CreateSession(c.Request.Context(), &req)
	if err != nil {
		status, code := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithError(err).WithField("booking_reference", req.BookingReference).Error("Checkout failed")
		}
		message := err.Error()
		if code == "INTERNAL_ERROR" {
			message = "Failed to create checkout session"
		}
		c.JSON(status, gin.H{"success": false, "message": message, "code": code})
		return
	}

	c.JSON(http.StatusOK, resp)
}
