package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cretedrive/rental-booking-backend/internal/cache"
	"github.com/cretedrive/rental-booking-backend/internal/models"
)

var eventTime = time.Date(2025, 8, 20, 12, 30, 0, 0, time.UTC)

func completedEvent(ref string) *ProviderEvent {
	return &ProviderEvent{
		ID:               "evt_completed_1",
		Type:             EventCheckoutSessionCompleted,
		Created:          eventTime,
		BookingReference: ref,
		Payment: models.PaymentDetails{
			PaymentID:     "pi_3Pabc",
			SessionID:     "cs_test_123",
			Amount:        188,
			Currency:      "eur",
			Status:        "paid",
			PaymentMethod: "card",
			CustomerEmail: "eleni@example.com",
			Timestamp:     eventTime,
		},
		Payload: []byte(`{"id":"evt_completed_1"}`),
	}
}

type reconcilerEnv struct {
	*testEnv
	events     *memoryEventStore
	reconciler *WebhookReconciler
}

func newReconcilerEnv(t *testing.T, store BookingStore) *reconcilerEnv {
	env := newTestEnv(t, nil)
	if store == nil {
		store = env.store
	}
	events := &memoryEventStore{}
	return &reconcilerEnv{
		testEnv:    env,
		events:     events,
		reconciler: NewWebhookReconciler(store, events, env.bookings, env.metrics, quietLogger()),
	}
}

func (e *reconcilerEnv) pendingBooking(t *testing.T) *models.Booking {
	t.Helper()
	req := validBookingRequest()
	req.PaymentMethod = models.PaymentMethodCard
	booking, err := e.bookings.CreateWithStatus(context.Background(), req, models.BookingStatusPending)
	require.NoError(t, err)
	return booking
}

func TestWebhookReconciler_CompletedMarksPaid(t *testing.T) {
	ctx := context.Background()
	env := newReconcilerEnv(t, nil)
	booking := env.pendingBooking(t)

	outcome, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, outcome)

	stored, err := env.store.GetByReference(ctx, booking.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, stored.Status)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, "pi_3Pabc", stored.Payment.PaymentID)
	assert.InDelta(t, 188.0, stored.Payment.Amount, 0.001)
	assert.True(t, stored.UpdatedAt.Equal(eventTime))

	published := env.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, "paid", published[0].Status)
	assert.Equal(t, "pending", published[0].PreviousStatus)
	assert.Equal(t, "evt_completed_1", published[0].EventID)

	require.Len(t, env.events.events, 1)
	audit := env.events.events[0]
	assert.Equal(t, models.OutcomeApplied, audit.Outcome)
	require.NotNil(t, audit.AmountsMatch)
	assert.True(t, *audit.AmountsMatch)
	assert.Equal(t, "paid", *audit.NewStatus)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.WebhookEvents.WithLabelValues(EventCheckoutSessionCompleted, "applied")))
}

func TestWebhookReconciler_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := newReconcilerEnv(t, nil)
	booking := env.pendingBooking(t)

	_, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
	require.NoError(t, err)
	once, err := env.store.GetByReference(ctx, booking.BookingReference)
	require.NoError(t, err)

	outcome, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeApplied, outcome)
	twice, err := env.store.GetByReference(ctx, booking.BookingReference)
	require.NoError(t, err)

	assert.Equal(t, once.Status, twice.Status)
	assert.Equal(t, once.Payment, twice.Payment)
	assert.True(t, once.UpdatedAt.Equal(twice.UpdatedAt))
	// redelivery is not a new status change
	assert.Len(t, env.publisher.published(), 1)
}

func TestWebhookReconciler_ConfirmedBookingStaysConfirmed(t *testing.T) {
	ctx := context.Background()
	env := newReconcilerEnv(t, nil)
	booking := env.pendingBooking(t)

	_, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
	require.NoError(t, err)
	_, err = env.bookings.ChangeStatus(ctx, booking.BookingReference, models.BookingStatusConfirmed, SourceAdmin)
	require.NoError(t, err)
	before, err := env.store.GetByReference(ctx, booking.BookingReference)
	require.NoError(t, err)

	outcome, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejectedTransition, outcome)

	after, err := env.store.GetByReference(ctx, booking.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, after.Status)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))

	published := env.publisher.published()
	require.Len(t, published, 2)
	assert.Equal(t, "confirmed", published[1].Status)
}

func TestWebhookReconciler_RefreshesCachedPayment(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	env := newReconcilerEnv(t, nil)
	env.bookings.cache = cache.NewBookingCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	booking := env.pendingBooking(t)

	failed := func(id, message string, at time.Time) *ProviderEvent {
		return &ProviderEvent{
			ID:               id,
			Type:             EventPaymentIntentFailed,
			Created:          at,
			BookingReference: booking.BookingReference,
			Payment:          models.PaymentDetails{PaymentID: "pi_retry", FailureMessage: message, Timestamp: at},
		}
	}

	_, err := env.reconciler.Reconcile(ctx, failed("evt_failed_1", "Your card was declined.", eventTime))
	require.NoError(t, err)
	got, err := env.bookings.Get(ctx, booking.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, "Your card was declined.", got.Payment.FailureMessage)
	require.True(t, mr.Exists("booking:"+booking.BookingReference))

	// same status, newer payment details
	_, err = env.reconciler.Reconcile(ctx, failed("evt_failed_2", "Your card has insufficient funds.", eventTime.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, mr.Exists("booking:"+booking.BookingReference))

	got, err = env.bookings.Get(ctx, booking.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaymentFailed, got.Status)
	assert.Equal(t, "Your card has insufficient funds.", got.Payment.FailureMessage)
	assert.True(t, got.UpdatedAt.Equal(eventTime.Add(time.Minute)))
}

func TestWebhookReconciler_ExpiredAndFailed(t *testing.T) {
	ctx := context.Background()
	env := newReconcilerEnv(t, nil)

	t.Run("expired", func(t *testing.T) {
		booking := env.pendingBooking(t)
		outcome, err := env.reconciler.Reconcile(ctx, &ProviderEvent{
			ID:               "evt_expired",
			Type:             EventCheckoutSessionExpired,
			Created:          eventTime,
			BookingReference: booking.BookingReference,
			Payment:          models.PaymentDetails{SessionID: "cs_test_9", Status: "expired", Timestamp: eventTime},
		})
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeApplied, outcome)

		stored, err := env.store.GetByReference(ctx, booking.BookingReference)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPaymentExpired, stored.Status)
		assert.True(t, stored.Payment.Timestamp.Equal(eventTime))
	})

	t.Run("failed", func(t *testing.T) {
		booking := env.pendingBooking(t)
		outcome, err := env.reconciler.Reconcile(ctx, &ProviderEvent{
			ID:               "evt_failed",
			Type:             EventPaymentIntentFailed,
			Created:          eventTime,
			BookingReference: booking.BookingReference,
			Payment:          models.PaymentDetails{PaymentID: "pi_fail", FailureMessage: "Your card was declined.", Timestamp: eventTime},
		})
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeApplied, outcome)

		stored, err := env.store.GetByReference(ctx, booking.BookingReference)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPaymentFailed, stored.Status)
		assert.Equal(t, "Your card was declined.", stored.Payment.FailureMessage)
	})
}

func TestWebhookReconciler_AcknowledgedWithoutWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown reference creates nothing", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)

		outcome, err := env.reconciler.Reconcile(ctx, completedEvent("CRUNKNOWN1"))
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeReferenceNotFound, outcome)

		exists, err := env.store.ReferenceExists(ctx, "CRUNKNOWN1")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Len(t, env.events.events, 1)
	})

	t.Run("missing reference", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		outcome, err := env.reconciler.Reconcile(ctx, completedEvent(""))
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeMissingReference, outcome)
	})

	t.Run("unhandled event type", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		outcome, err := env.reconciler.Reconcile(ctx, &ProviderEvent{ID: "evt_x", Type: "customer.created"})
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeIgnoredEventType, outcome)
	})

	t.Run("late expiry does not undo a payment", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		booking := env.pendingBooking(t)

		_, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
		require.NoError(t, err)

		outcome, err := env.reconciler.Reconcile(ctx, &ProviderEvent{
			ID:               "evt_expired_late",
			Type:             EventCheckoutSessionExpired,
			Created:          eventTime.Add(time.Hour),
			BookingReference: booking.BookingReference,
		})
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeRejectedTransition, outcome)

		stored, err := env.store.GetByReference(ctx, booking.BookingReference)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPaid, stored.Status)
	})
}

func TestWebhookReconciler_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("read failure is a store error", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		booking := env.pendingBooking(t)
		env.reconciler.store = &flakyStore{BookingStore: env.store, getErr: errStoreDown}

		outcome, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
		assert.Equal(t, models.OutcomeStoreError, outcome)
		var storeErr *StoreWriteError
		require.True(t, errors.As(err, &storeErr))
		assert.ErrorIs(t, err, errStoreDown)
	})

	t.Run("write failure is a store error", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		booking := env.pendingBooking(t)
		env.reconciler.store = &flakyStore{BookingStore: env.store, updateErrs: []error{errStoreDown}}

		_, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
		var storeErr *StoreWriteError
		require.True(t, errors.As(err, &storeErr))
	})

	t.Run("lost compare-and-set is retried", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		booking := env.pendingBooking(t)
		store := &flakyStore{BookingStore: env.store, updateErrs: []error{models.ErrStatusConflict}}
		env.reconciler.store = store

		outcome, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeApplied, outcome)
		assert.Equal(t, 2, store.updateCalls)
	})

	t.Run("conflict on every attempt", func(t *testing.T) {
		env := newReconcilerEnv(t, nil)
		booking := env.pendingBooking(t)
		conflicts := []error{models.ErrStatusConflict, models.ErrStatusConflict, models.ErrStatusConflict}
		env.reconciler.store = &flakyStore{BookingStore: env.store, updateErrs: conflicts}

		outcome, err := env.reconciler.Reconcile(ctx, completedEvent(booking.BookingReference))
		assert.Equal(t, models.OutcomeStoreError, outcome)
		assert.ErrorIs(t, err, models.ErrStatusConflict)
	})
}
