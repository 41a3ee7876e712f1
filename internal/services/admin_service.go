package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/metrics"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/pkg/reference"
)

// AdminService is the staff read path over bookings.
// When the primary store fails it serves the file snapshot and flags the result degraded.
type AdminService struct {
	store    BookingReader
	fallback BookingReader
	events   PaymentEventStore
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewAdminService creates the admin read service. fallback and events may be nil.
func NewAdminService(store, fallback BookingReader, events PaymentEventStore, m *metrics.Metrics, logger *logrus.Logger) *AdminService {
	return &AdminService{
		store:    store,
		fallback: fallback,
		events:   events,
		metrics:  m,
		logger:   logger,
	}
}

// ListBookings returns bookings newest-first
func (s *AdminService) ListBookings(ctx context.Context, filter models.BookingFilter) (*models.AdminBookingList, error) {
	bookings, err := s.store.List(ctx, filter)
	degraded := false
	if err != nil {
		if s.fallback == nil {
			return nil, err
		}
		s.logger.WithError(err).Warn("Booking store unavailable, serving file snapshot")
		s.metrics.AdminFallbackRead.Inc()

		bookings, err = s.fallback.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		degraded = true
	}

	if bookings == nil {
		bookings = []models.Booking{}
	}
	return &models.AdminBookingList{
		Bookings: bookings,
		Count:    len(bookings),
		Degraded: degraded,
	}, nil
}

// GetBooking returns a single booking, falling back to the snapshot on store failure
func (s *AdminService) GetBooking(ctx context.Context, ref string) (*models.Booking, error) {
	ref = reference.Normalize(ref)

	booking, err := s.store.GetByReference(ctx, ref)
	if err == nil || errors.Is(err, models.ErrBookingNotFound) || s.fallback == nil {
		return booking, err
	}

	s.logger.WithError(err).Warn("Booking store unavailable, reading file snapshot")
	s.metrics.AdminFallbackRead.Inc()
	return s.fallback.GetByReference(ctx, ref)
}

// ListEvents returns the webhook audit trail of a booking, newest first
func (s *AdminService) ListEvents(ctx context.Context, ref string) ([]models.PaymentEvent, error) {
	if s.events == nil {
		return []models.PaymentEvent{}, nil
	}
	events, err := s.events.ListByReference(ctx, reference.Normalize(ref))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.PaymentEvent{}
	}
	return events, nil
}

// Stats aggregates bookings by status
func (s *AdminService) Stats(ctx context.Context) (*models.BookingStats, error) {
	counts, err := s.store.CountByStatus(ctx)
	degraded := false
	if err != nil {
		if s.fallback == nil {
			return nil, err
		}
		s.metrics.AdminFallbackRead.Inc()
		counts, err = s.fallback.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		degraded = true
	}

	stats := &models.BookingStats{ByStatus: counts, Degraded: degraded}
	if stats.ByStatus == nil {
		stats.ByStatus = []models.StatusCount{}
	}
	for _, c := range counts {
		stats.Total += c.Count
		if c.Status == models.BookingStatusPaid {
			stats.PaidRevenue += c.Revenue
		}
	}
	return stats, nil
}
