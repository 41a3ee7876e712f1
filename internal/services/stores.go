package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/internal/queue"
)

// BookingStore is implemented by the postgres repository and the file store
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	UpdateStatus(ctx context.Context, update models.StatusUpdate) error
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	CancelStaleDrafts(ctx context.Context, cutoff time.Time) ([]string, error)
}

// BookingReader is the read side used by the degraded admin path
type BookingReader interface {
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

// SnapshotTarget receives a full copy of the authoritative store
type SnapshotTarget interface {
	ReplaceAll(ctx context.Context, bookings []models.Booking) error
}

// PaymentEventStore keeps the webhook audit trail
type PaymentEventStore interface {
	Record(ctx context.Context, event *models.PaymentEvent) error
	ListByReference(ctx context.Context, reference string) ([]models.PaymentEvent, error)
}

// StaffUserStore persists dashboard accounts
type StaffUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.StaffUser, error)
	Upsert(ctx context.Context, user *models.StaffUser) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// StatusPublisher announces booking status changes
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, event queue.BookingStatusEvent) error
}

// BookingProjection is a read-through copy of bookings, never a source of truth
type BookingProjection interface {
	Get(ctx context.Context, reference string) (*models.Booking, error)
	Set(ctx context.Context, booking *models.Booking) error
	Invalidate(ctx context.Context, reference string) error
}
