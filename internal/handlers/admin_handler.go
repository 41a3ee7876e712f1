package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/middleware"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/services"
)

const maxListLimit = 500

// AdminHandler serves the staff dashboard API
type AdminHandler struct {
	adminService    *services.AdminService
	bookingService  *services.BookingService
	snapshotService *services.SnapshotService
	cronService     *services.CronService
	logger          *logrus.Logger
}

// NewAdminHandler creates a new admin handler. snapshotService and cronService may be nil.
func NewAdminHandler(
	adminService *services.AdminService,
	bookingService *services.BookingService,
	snapshotService *services.SnapshotService,
	cronService *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		bookingService:  bookingService,
		snapshotService: snapshotService,
		cronService:     cronService,
		logger:          logger,
	}
}

// ListBookings handles GET /api/admin/bookings?status=&limit=
// @Summary List bookings
// @Description Newest first; served from the file snapshot with degraded=true when the database is down
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Maximum number of bookings"
// @Success 200 {object} models.AdminBookingList
// @Router /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	filter := models.BookingFilter{}

	if status := c.Query("status"); status != "" {
		filter.Status = models.BookingStatus(status)
		if !filter.Status.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad Request", Message: "Unknown status " + status, Code: "INVALID_STATUS"})
			return
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad Request", Message: "limit must be a positive integer", Code: "INVALID_LIMIT"})
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}

	list, err := h.adminService.ListBookings(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetBooking handles GET /api/admin/bookings/:reference
func (h *AdminHandler) GetBooking(c *gin.Context) {
	booking, err := h.adminService.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListEvents handles GET /api/admin/bookings/:reference/events
func (h *AdminHandler) ListEvents(c *gin.Context) {
	events, err := h.adminService.ListEvents(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list payment events")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute booking stats")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateBooking handles POST /api/admin/bookings; staff bookings start as new
func (h *AdminHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.CreateWithStatus(c.Request.Context(), req, models.BookingStatusNew)
	if err != nil {
		respondError(c, err)
		return
	}

	if staff, ok := middleware.GetStaffContext(c); ok {
		h.logger.WithFields(logrus.Fields{
			"staff_id":          staff.StaffID,
			"booking_reference": booking.BookingReference,
		}).Info("Staff created booking")
	}
	c.JSON(http.StatusCreated, booking)
}

// UpdateStatus handles PATCH /api/admin/bookings/:reference/status
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad Request", Message: "Unknown status " + string(req.Status), Code: "INVALID_STATUS"})
		return
	}

	booking, err := h.bookingService.ChangeStatus(c.Request.Context(), c.Param("reference"), req.Status, services.SourceAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	if staff, ok := middleware.GetStaffContext(c); ok {
		h.logger.WithFields(logrus.Fields{
			"staff_id":          staff.StaffID,
			"booking_reference": booking.BookingReference,
			"status":            booking.Status,
		}).Info("Staff changed booking status")
	}
	c.JSON(http.StatusOK, booking)
}

// TriggerSnapshot handles POST /api/admin/snapshot
func (h *AdminHandler) TriggerSnapshot(c *gin.Context) {
	if h.snapshotService == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Conflict", Message: "No separate snapshot store is configured", Code: "SNAPSHOT_DISABLED"})
		return
	}

	count, err := h.snapshotService.Run(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Manual snapshot failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": count})
}

// CronStatus handles GET /api/admin/cron/status
func (h *AdminHandler) CronStatus(c *gin.Context) {
	jobs := []services.JobStatus{}
	if h.cronService != nil {
		jobs = h.cronService.Status()
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}
