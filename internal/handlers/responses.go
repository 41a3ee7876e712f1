package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/services"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		services.ConfigureValidator(v)
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// errorStatus maps service errors to an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	var (
		validationErr *services.ValidationError
		illegalErr    *models.IllegalTransitionError
		providerErr   *services.PaymentProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, models.ErrBookingNotFound):
		return http.StatusNotFound, "BOOKING_NOT_FOUND"
	case errors.Is(err, models.ErrDuplicateReference):
		return http.StatusConflict, "DUPLICATE_REFERENCE"
	case errors.Is(err, models.ErrStatusConflict):
		return http.StatusConflict, "STATUS_CONFLICT"
	case errors.As(err, &illegalErr):
		return http.StatusConflict, "ILLEGAL_TRANSITION"
	case errors.Is(err, services.ErrAlreadyPaid):
		return http.StatusConflict, "ALREADY_PAID"
	case errors.As(err, &providerErr):
		return http.StatusInternalServerError, "PAYMENT_PROVIDER_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondError writes err as an ErrorResponse; internal errors never leak their text
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if code == "INTERNAL_ERROR" {
		message = "An unexpected error occurred"
	}
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// respondBindError answers a body that failed to bind. Tag violations name the
// offending fields; anything else is an unreadable body.
func respondBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		respondError(c, services.BindingError(err))
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Bad Request",
		Message: "Invalid request body",
		Code:    "INVALID_BODY",
	})
}
