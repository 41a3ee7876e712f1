package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/database"
	"github.com/cretedrive/rental-booking-backend/internal/metrics"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/queue"
)

var errStoreDown = errors.New("connection refused")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRules() config.BookingConfig {
	return config.BookingConfig{
		ReferencePrefix:       "CR",
		LateDropoffCutoffHour: 20,
		LateDropoffFee:        15,
		StaleDraftAge:         72 * time.Hour,
		SnapshotSchedule:      "0 */5 * * * *",
		CleanupSchedule:       "0 30 3 * * *",
	}
}

func newFileStore(t *testing.T) *database.FileBookingStore {
	t.Helper()
	store, err := database.NewFileBookingStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// recordingPublisher keeps published events in memory
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingStatusEvent
}

func (p *recordingPublisher) PublishStatusChange(_ context.Context, event queue.BookingStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []queue.BookingStatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingStatusEvent(nil), p.events...)
}

// memoryEventStore is an in-memory payment_events table
type memoryEventStore struct {
	mu     sync.Mutex
	events []models.PaymentEvent
}

func (m *memoryEventStore) Record(_ context.Context, event *models.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *memoryEventStore) ListByReference(_ context.Context, ref string) ([]models.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PaymentEvent
	for _, e := range m.events {
		if e.BookingReference != nil && *e.BookingReference == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

// flakyStore wraps a store and injects failures
type flakyStore struct {
	BookingStore
	createErrs  []error
	updateErrs  []error
	getErr      error
	listErr     error
	updateCalls int
}

func (f *flakyStore) Create(ctx context.Context, booking *models.Booking) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return err
	}
	return f.BookingStore.Create(ctx, booking)
}

func (f *flakyStore) GetByReference(ctx context.Context, ref string) (*models.Booking, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.BookingStore.GetByReference(ctx, ref)
}

func (f *flakyStore) UpdateStatus(ctx context.Context, update models.StatusUpdate) error {
	f.updateCalls++
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		return err
	}
	return f.BookingStore.UpdateStatus(ctx, update)
}

func (f *flakyStore) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.BookingStore.List(ctx, filter)
}

func (f *flakyStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.BookingStore.CountByStatus(ctx)
}

// fakeProvider records checkout session inputs
type fakeProvider struct {
	inputs []CheckoutSessionInput
	err    error
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	p.inputs = append(p.inputs, input)
	if p.err != nil {
		return nil, p.err
	}
	return &CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil
}

type testEnv struct {
	store     *database.FileBookingStore
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	bookings  *BookingService
}

func newTestEnv(t *testing.T, store BookingStore) *testEnv {
	t.Helper()
	fileStore := newFileStore(t)
	if store == nil {
		store = fileStore
	}
	env := &testEnv{
		store:     fileStore,
		publisher: &recordingPublisher{},
		metrics:   metrics.NewMetrics("test"),
	}
	env.bookings = NewBookingService(
		store,
		NewReferenceService(store, "CR"),
		nil,
		env.publisher,
		env.metrics,
		testRules(),
		"EUR",
		quietLogger(),
	)
	return env
}

func validBookingRequest() models.CreateBookingRequest {
	return models.CreateBookingRequest{
		Customer: models.Customer{
			FirstName:     "Eleni",
			LastName:      "Papadaki",
			Email:         "Eleni@Example.com",
			Phone:         "+30 694 123 4567",
			Nationality:   "GR",
			FullInsurance: true,
		},
		SelectedCar: models.SelectedCar{
			ID:    "fiat-panda",
			Name:  "Fiat Panda",
			Price: 35,
		},
		PickupLocation:  "heraklion-airport",
		DropoffLocation: "Agia-Marina",
		PickupDate:      "2025-08-25",
		PickupTime:      "10:00",
		ReturnDate:      "2025-08-28",
		ReturnTime:      "21:00",
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
