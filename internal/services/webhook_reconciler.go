package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/metrics"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/pkg/reference"
)

// maxReconcileAttempts bounds the reload-and-retry loop on a lost compare-and-set
const maxReconcileAttempts = 3

// eventStatuses maps handled provider event types to the status they set
var eventStatuses = map[string]models.BookingStatus{
	EventCheckoutSessionCompleted: models.BookingStatusPaid,
	EventCheckoutSessionExpired:   models.BookingStatusPaymentExpired,
	EventPaymentIntentFailed:      models.BookingStatusPaymentFailed,
}

// WebhookReconciler applies verified payment events to the booking store
type WebhookReconciler struct {
	store    BookingStore
	events   PaymentEventStore
	bookings *BookingService
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewWebhookReconciler creates a reconciler. events may be nil when no audit table exists.
func NewWebhookReconciler(store BookingStore, events PaymentEventStore, bookings *BookingService, m *metrics.Metrics, logger *logrus.Logger) *WebhookReconciler {
	return &WebhookReconciler{
		store:    store,
		events:   events,
		bookings: bookings,
		metrics:  m,
		logger:   logger,
	}
}

// Reconcile applies event to its booking. Only a store failure returns an error;
// unknown types, missing or unknown references and illegal transitions are
// acknowledged so the provider stops redelivering.
func (r *WebhookReconciler) Reconcile(ctx context.Context, event *ProviderEvent) (models.WebhookOutcome, error) {
	start := time.Now()
	defer func() { r.metrics.WebhookDuration.Observe(time.Since(start).Seconds()) }()

	ref := reference.Normalize(event.BookingReference)
	audit := models.NewPaymentEvent(event.ID, event.Type).SetReference(ref).SetPayload(event.Payload)

	log := r.logger.WithFields(logrus.Fields{
		"event_id":          event.ID,
		"event_type":        event.Type,
		"booking_reference": ref,
	})

	outcome, err := r.apply(ctx, event, ref, audit, log)
	audit.SetOutcome(outcome)
	if err != nil {
		audit.SetError(err.Error())
	}
	r.record(ctx, audit, log)
	r.metrics.WebhookEvents.WithLabelValues(event.Type, string(outcome)).Inc()

	return outcome, err
}

func (r *WebhookReconciler) apply(ctx context.Context, event *ProviderEvent, ref string, audit *models.PaymentEvent, log *logrus.Entry) (models.WebhookOutcome, error) {
	target, handled := eventStatuses[event.Type]
	if !handled {
		log.Info("Ignoring unhandled webhook event type")
		return models.OutcomeIgnoredEventType, nil
	}
	if ref == "" {
		log.Warn("Webhook event carries no booking reference")
		return models.OutcomeMissingReference, nil
	}

	updatedAt := event.Created
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		booking, err := r.store.GetByReference(ctx, ref)
		if errors.Is(err, models.ErrBookingNotFound) {
			log.Warn("Webhook references an unknown booking, skipping")
			return models.OutcomeReferenceNotFound, nil
		}
		if err != nil {
			log.WithError(err).Error("Failed to load booking for webhook")
			return models.OutcomeStoreError, &StoreWriteError{Reference: ref, Err: err}
		}

		audit.SetTransition(booking.Status, target)
		// staff already confirmed this payment
		if booking.Status == models.BookingStatusConfirmed && booking.Payment != nil {
			log.WithField("current_status", booking.Status).Info("Webhook for a confirmed paid booking, leaving it confirmed")
			return models.OutcomeRejectedTransition, nil
		}
		if err := booking.Status.ValidateTransition(target); err != nil {
			log.WithField("current_status", booking.Status).Warn("Rejected webhook status transition")
			return models.OutcomeRejectedTransition, nil
		}

		if target == models.BookingStatusPaid {
			if !audit.SetAmounts(booking.TotalPrice, event.Payment.Amount, event.Payment.Currency) {
				log.WithFields(logrus.Fields{
					"expected_amount": booking.TotalPrice,
					"received_amount": event.Payment.Amount,
				}).Warn("Paid amount differs from booking total")
			}
		}

		update := models.StatusUpdate{
			Reference: ref,
			From:      booking.Status,
			To:        target,
			Payment:   booking.Payment.Merge(event.Payment),
			UpdatedAt: updatedAt,
		}

		err = r.store.UpdateStatus(ctx, update)
		switch {
		case err == nil:
			updated := booking.ApplyStatusUpdate(update)
			// payment details and timestamp may change without a status change
			r.bookings.invalidate(ctx, ref)
			if booking.Status != target {
				r.bookings.afterStatusChange(ctx, &updated, booking.Status, SourceWebhook, event.ID)
			} else {
				log.Debug("Webhook re-applied to a booking already in its status")
			}
			return models.OutcomeApplied, nil
		case errors.Is(err, models.ErrStatusConflict):
			log.WithField("attempt", attempt).Warn("Booking changed during webhook reconciliation, retrying")
			continue
		case errors.Is(err, models.ErrBookingNotFound):
			log.Warn("Booking disappeared during webhook reconciliation")
			return models.OutcomeReferenceNotFound, nil
		default:
			log.WithError(err).Error("Failed to write webhook status")
			return models.OutcomeStoreError, &StoreWriteError{Reference: ref, Err: err}
		}
	}

	return models.OutcomeStoreError, &StoreWriteError{Reference: ref, Err: models.ErrStatusConflict}
}

// record appends the audit entry; failures never fail the delivery
func (r *WebhookReconciler) record(ctx context.Context, audit *models.PaymentEvent, log *logrus.Entry) {
	if r.events == nil {
		return
	}
	if err := r.events.Record(ctx, audit); err != nil {
		log.WithError(err).Warn("Failed to record payment event")
	}
}
