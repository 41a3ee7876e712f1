package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/metrics"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/pkg/reference"
	"github.com/cretedrive/rental-booking-backend/pkg/rental"
)

// CheckoutService turns a booking into a hosted payment session
type CheckoutService struct {
	bookings *BookingService
	store    BookingStore
	provider CheckoutProvider
	metrics  *metrics.Metrics
	currency string
	logger   *logrus.Logger
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(
	bookings *BookingService,
	store BookingStore,
	provider CheckoutProvider,
	m *metrics.Metrics,
	currency string,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		bookings: bookings,
		store:    store,
		provider: provider,
		metrics:  m,
		currency: strings.ToLower(currency),
		logger:   logger,
	}
}

// ValidateCheckoutRequest checks that customer, car, booking and a positive amount are present
func ValidateCheckoutRequest(req *models.CheckoutRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if math.IsInf(*req.Amount, 0) {
		return newValidationError("Value must be positive", "amount")
	}
	return nil
}

// CreateSession reconciles the booking to pending and opens a provider session for it.
// The session metadata is the only link between the provider's events and the booking.
func (s *CheckoutService) CreateSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := ValidateCheckoutRequest(req); err != nil {
		s.metrics.CheckoutSessions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	booking, err := s.pendingBooking(ctx, req)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			s.metrics.CheckoutSessions.WithLabelValues("invalid").Inc()
		} else {
			s.metrics.CheckoutSessions.WithLabelValues("store_error").Inc()
		}
		return nil, err
	}

	amount := rental.RoundCents(*req.Amount)
	if math.Abs(amount-booking.TotalPrice) >= 0.01 {
		s.logger.WithFields(logrus.Fields{
			"booking_reference": booking.BookingReference,
			"client_amount":     amount,
			"server_total":      booking.TotalPrice,
		}).Warn("Checkout amount differs from the server quote")
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}

	input := CheckoutSessionInput{
		BookingReference: booking.BookingReference,
		AmountMinor:      rental.ToMinorUnits(amount),
		Currency:         currency,
		ProductName:      fmt.Sprintf("%s rental (%d days)", booking.SelectedCar.Name, booking.DurationDays),
		Description: fmt.Sprintf("%s to %s, %s to %s",
			rental.FormatLocationName(booking.PickupLocation), rental.FormatLocationName(booking.DropoffLocation),
			booking.PickupDate, booking.ReturnDate),
		CustomerEmail: booking.Customer.Email,
		Metadata:      SessionMetadata(booking),
	}

	session, err := s.provider.CreateCheckoutSession(ctx, input)
	if err != nil {
		s.metrics.CheckoutSessions.WithLabelValues("provider_error").Inc()
		s.logger.WithError(err).WithField("booking_reference", booking.BookingReference).
			Error("Checkout session creation failed")
		return nil, &PaymentProviderError{Message: err.Error(), Err: err}
	}

	s.metrics.CheckoutSessions.WithLabelValues("created").Inc()
	return &models.CheckoutResponse{
		Success:          true,
		SessionID:        session.ID,
		URL:              session.URL,
		BookingReference: booking.BookingReference,
	}, nil
}

// pendingBooking finds or creates the server-side booking and moves it to pending
func (s *CheckoutService) pendingBooking(ctx context.Context, req *models.CheckoutRequest) (*models.Booking, error) {
	ref := reference.Normalize(req.BookingReference)
	if ref != "" {
		existing, err := s.store.GetByReference(ctx, ref)
		switch {
		case err == nil:
			if existing.Status == models.BookingStatusPaid {
				return nil, ErrAlreadyPaid
			}
			return s.bookings.ChangeStatus(ctx, ref, models.BookingStatusPending, SourceCheckout)
		case !errors.Is(err, models.ErrBookingNotFound):
			return nil, &StoreWriteError{Reference: ref, Err: err}
		}
	}

	create := models.CreateBookingRequest{
		BookingReference: ref,
		Customer:         *req.Customer,
		SelectedCar:      *req.Car,
		PickupLocation:   req.Booking.PickupLocation,
		DropoffLocation:  req.Booking.DropoffLocation,
		PickupDate:       req.Booking.PickupDate,
		PickupTime:       req.Booking.PickupTime,
		ReturnDate:       req.Booking.ReturnDate,
		ReturnTime:       req.Booking.ReturnTime,
		PaymentMethod:    models.PaymentMethodCard,
		Currency:         req.Currency,
		Source:           req.Source,
	}
	return s.bookings.CreateWithStatus(ctx, create, models.BookingStatusPending)
}

// SessionMetadata is the opaque metadata attached to a checkout session
func SessionMetadata(booking *models.Booking) map[string]string {
	return map[string]string{
		MetadataBookingReference: booking.BookingReference,
		"customerName":           booking.Customer.FullName(),
		"customerEmail":          booking.Customer.Email,
		"carId":                  booking.SelectedCar.ID,
		"carName":                booking.SelectedCar.Name,
		"pickupDate":             booking.PickupDate,
		"returnDate":             booking.ReturnDate,
		"durationDays":           strconv.Itoa(booking.DurationDays),
	}
}
