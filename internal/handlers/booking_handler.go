package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/services"
	"github.com/cretedrive/rental-booking-backend/internal/utils"
	"github.com/cretedrive/rental-booking-backend/pkg/rental"
)

// BookingHandler handles the public booking API
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// CreateBooking handles POST /api/bookings
// @Summary Submit a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking form"
// @Success 201 {object} models.Booking
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.Source = utils.SubmissionSourceFromRequest(c)

	booking, err := h.bookingService.Create(c.Request.Context(), req)
	if err != nil {
		if status, _ := errorStatus(err); status >= http.StatusInternalServerError {
			h.logger.WithError(err).Error("Failed to create booking")
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/:reference
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Quote handles POST /api/bookings/quote
func (h *BookingHandler) Quote(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := h.bookingService.Quote(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ListLocations handles GET /api/locations
func (h *BookingHandler) ListLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": rental.Locations()})
}
