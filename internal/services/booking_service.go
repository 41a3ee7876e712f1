package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/metrics"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/queue"
	"github.com/cretedrive/rental-booking-backend/pkg/reference"
	"github.com/cretedrive/rental-booking-backend/pkg/rental"
	"github.com/cretedrive/rental-booking-backend/pkg/validator"
)

// Status change sources carried on queue events
const (
	SourceBooking  = "booking"
	SourceCheckout = "checkout"
	SourceWebhook  = "webhook"
	SourceAdmin    = "admin"
)

// BookingService owns booking creation, lookup and staff status changes
type BookingService struct {
	store      BookingStore
	references *ReferenceService
	cache      BookingProjection
	publisher  StatusPublisher
	metrics    *metrics.Metrics
	validator  *validator.CustomerValidator
	rules      config.BookingConfig
	currency   string
	catalogue  rental.Catalogue
	logger     *logrus.Logger
}

// NewBookingService creates a booking service. cache and publisher may be nil.
func NewBookingService(
	store BookingStore,
	references *ReferenceService,
	cache BookingProjection,
	publisher StatusPublisher,
	m *metrics.Metrics,
	rules config.BookingConfig,
	currency string,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		store:      store,
		references: references,
		cache:      cache,
		publisher:  publisher,
		metrics:    m,
		validator:  validator.NewCustomerValidator(),
		rules:      rules,
		currency:   strings.ToLower(currency),
		catalogue:  rental.DefaultCatalogue(),
		logger:     logger,
	}
}

// Create stores a booking submitted through the public form.
// Paying on arrival confirms it; paying by card leaves a draft awaiting checkout.
func (s *BookingService) Create(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	status := models.BookingStatusConfirmed
	if req.PaymentMethod == models.PaymentMethodCard {
		status = models.BookingStatusDraft
	}
	return s.CreateWithStatus(ctx, req, status)
}

// CreateWithStatus validates req, prices it and stores it with the given initial status.
// A client-supplied reference that is already taken returns models.ErrDuplicateReference.
func (s *BookingService) CreateWithStatus(ctx context.Context, req models.CreateBookingRequest, status models.BookingStatus) (*models.Booking, error) {
	booking, err := s.buildBooking(req, status)
	if err != nil {
		return nil, err
	}

	if req.BookingReference != "" {
		booking.BookingReference = reference.Normalize(req.BookingReference)
		if !reference.IsValid(booking.BookingReference) {
			return nil, newValidationError("Invalid booking reference", "bookingReference")
		}
		if err := s.store.Create(ctx, booking); err != nil {
			return nil, err
		}
	} else if err := s.insertWithAllocatedReference(ctx, booking); err != nil {
		return nil, err
	}

	s.metrics.BookingsCreated.WithLabelValues(string(booking.Status)).Inc()
	s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"status":            booking.Status,
		"total_price":       booking.TotalPrice,
		"duration_days":     booking.DurationDays,
	}).Info("Booking created")

	return booking, nil
}

// insertWithAllocatedReference retries when the unique constraint catches a collision
func (s *BookingService) insertWithAllocatedReference(ctx context.Context, booking *models.Booking) error {
	for attempt := 0; attempt < DefaultReferenceAttempts; attempt++ {
		ref, err := s.references.Allocate(ctx)
		if err != nil {
			return err
		}
		booking.BookingReference = ref

		err = s.store.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrDuplicateReference) {
			return err
		}
		s.logger.WithField("booking_reference", ref).Warn("Booking reference collided on insert, retrying")
	}
	return ErrReferenceExhausted
}

func (s *BookingService) buildBooking(req models.CreateBookingRequest, status models.BookingStatus) (*models.Booking, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	contact, err := s.validator.ValidateContact(validator.Contact{
		FirstName: req.Customer.FirstName,
		LastName:  req.Customer.LastName,
		Email:     req.Customer.Email,
		Phone:     req.Customer.Phone,
	})
	if err != nil {
		var fieldErr *validator.FieldError
		if errors.As(err, &fieldErr) {
			return nil, newValidationError(fieldErr.Err.Error(), "customer."+fieldErr.Field)
		}
		return nil, newValidationError(err.Error())
	}

	pickup, dropoff, err := parseRentalPeriod(req.PickupDate, req.PickupTime, req.ReturnDate, req.ReturnTime)
	if err != nil {
		return nil, err
	}

	customer := req.Customer
	customer.FirstName = contact.FirstName
	customer.LastName = contact.LastName
	customer.Email = contact.Email
	customer.Phone = contact.Phone

	days := rental.InclusiveDays(pickup, dropoff)
	quote := rental.CalculateQuote(req.SelectedCar.Price, days, customer.Extras(), s.catalogue)

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}

	now := time.Now().UTC()
	return &models.Booking{
		ID:              uuid.New().String(),
		Status:          status,
		Customer:        customer,
		SelectedCar:     req.SelectedCar,
		PickupLocation:  rental.NormalizeLocationCode(req.PickupLocation),
		DropoffLocation: rental.NormalizeLocationCode(req.DropoffLocation),
		PickupDate:      req.PickupDate,
		PickupTime:      req.PickupTime,
		ReturnDate:      req.ReturnDate,
		ReturnTime:      req.ReturnTime,
		DurationDays:    quote.Days,
		TotalPrice:      quote.Total,
		Currency:        currency,
		LateDropoff:     req.ReturnTime != "" && rental.IsLateDropoff(dropoff, s.rules.LateDropoffCutoffHour),
		Source:          req.Source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func parseRentalPeriod(pickupDate, pickupTime, returnDate, returnTime string) (time.Time, time.Time, error) {
	pickup, err := rental.ParseDateTime(pickupDate, pickupTime)
	if err != nil {
		return time.Time{}, time.Time{}, newValidationError("Invalid pickup date", "pickupDate")
	}
	dropoff, err := rental.ParseDateTime(returnDate, returnTime)
	if err != nil {
		return time.Time{}, time.Time{}, newValidationError("Invalid return date", "returnDate")
	}
	if dropoff.Before(pickup) {
		return time.Time{}, time.Time{}, newValidationError("Return date must not be before pickup date", "returnDate")
	}
	return pickup, dropoff, nil
}

// Get returns the booking with reference, read through the cache
func (s *BookingService) Get(ctx context.Context, ref string) (*models.Booking, error) {
	ref = reference.Normalize(ref)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ref)
		if err != nil {
			s.logger.WithError(err).Warn("Booking cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	booking, err := s.store.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, booking); err != nil {
			s.logger.WithError(err).Warn("Booking cache write failed")
		}
	}
	return booking, nil
}

// Quote previews duration and price without storing anything
func (s *BookingService) Quote(req models.QuoteRequest) (*models.QuoteResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	pickup, dropoff, err := parseRentalPeriod(req.PickupDate, req.PickupTime, req.ReturnDate, req.ReturnTime)
	if err != nil {
		return nil, err
	}

	days := rental.InclusiveDays(pickup, dropoff)
	resp := &models.QuoteResponse{
		Quote:       rental.CalculateQuote(req.DailyRate, days, req.Customer.Extras(), s.catalogue),
		LateDropoff: req.ReturnTime != "" && rental.IsLateDropoff(dropoff, s.rules.LateDropoffCutoffHour),
	}
	// informational only, never part of the total
	if resp.LateDropoff {
		resp.LateDropoffFee = s.rules.LateDropoffFee
	}
	return resp, nil
}

// ChangeStatus moves a booking to next if the lifecycle allows it.
// A concurrent write between read and update returns models.ErrStatusConflict.
func (s *BookingService) ChangeStatus(ctx context.Context, ref string, next models.BookingStatus, source string) (*models.Booking, error) {
	ref = reference.Normalize(ref)

	booking, err := s.store.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := booking.Status.ValidateTransition(next); err != nil {
		return nil, err
	}
	if booking.Status == next {
		return booking, nil
	}

	update := models.StatusUpdate{
		Reference: ref,
		From:      booking.Status,
		To:        next,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.UpdateStatus(ctx, update); err != nil {
		return nil, err
	}

	updated := booking.ApplyStatusUpdate(update)
	s.afterStatusChange(ctx, &updated, booking.Status, source, "")
	return &updated, nil
}

// afterStatusChange updates the projections of a booking whose status was written
func (s *BookingService) afterStatusChange(ctx context.Context, booking *models.Booking, previous models.BookingStatus, source, eventID string) {
	s.metrics.StatusChanges.WithLabelValues(string(booking.Status)).Inc()
	s.invalidate(ctx, booking.BookingReference)

	if s.publisher != nil {
		event := queue.BookingStatusEvent{
			BookingReference: booking.BookingReference,
			PreviousStatus:   string(previous),
			Status:           string(booking.Status),
			Source:           source,
			EventID:          eventID,
			Amount:           booking.TotalPrice,
			Currency:         booking.Currency,
			CustomerEmail:    booking.Customer.Email,
			OccurredAt:       booking.UpdatedAt,
		}
		if booking.Payment != nil && booking.Payment.Amount > 0 {
			event.Amount = booking.Payment.Amount
		}
		if err := s.publisher.PublishStatusChange(ctx, event); err != nil {
			s.logger.WithError(err).WithField("booking_reference", booking.BookingReference).
				Warn("Failed to publish booking status event")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"previous_status":   previous,
		"status":            booking.Status,
		"source":            source,
	}).Info("Booking status changed")
}

// invalidate drops the cached projection of ref after any write to it
func (s *BookingService) invalidate(ctx context.Context, ref string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ref); err != nil {
		s.logger.WithError(err).WithField("booking_reference", ref).Warn("Booking cache invalidation failed")
	}
}

// CancelStaleDrafts cancels drafts created before cutoff and drops their cached copies
func (s *BookingService) CancelStaleDrafts(ctx context.Context, cutoff time.Time) ([]string, error) {
	refs, err := s.store.CancelStaleDrafts(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		s.invalidate(ctx, ref)
	}
	if len(refs) > 0 {
		s.metrics.StatusChanges.WithLabelValues(string(models.BookingStatusCanceled)).Add(float64(len(refs)))
	}
	return refs, nil
}
