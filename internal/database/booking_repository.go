package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

const bookingColumns = `id, reference, status, data, payment, created_at, updated_at`

// BookingRepository is the authoritative booking store
type BookingRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *sqlx.DB, logger *logrus.Logger) *BookingRepository {
	return &BookingRepository{
		db:     db,
		logger: logger,
	}
}

// bookingRow maps a bookings row. status and payment columns win over
// the copies inside data because status writes only touch those columns.
type bookingRow struct {
	ID        string    `db:"id"`
	Reference string    `db:"reference"`
	Status    string    `db:"status"`
	Data      []byte    `db:"data"`
	Payment   []byte    `db:"payment"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r bookingRow) toBooking() (*models.Booking, error) {
	var booking models.Booking
	if err := json.Unmarshal(r.Data, &booking); err != nil {
		return nil, fmt.Errorf("failed to decode booking %s: %w", r.Reference, err)
	}

	booking.ID = r.ID
	booking.BookingReference = r.Reference
	booking.Status = models.BookingStatus(r.Status)
	booking.CreatedAt = r.CreatedAt
	booking.UpdatedAt = r.UpdatedAt
	booking.Payment = nil

	if len(r.Payment) > 0 && string(r.Payment) != "null" {
		var payment models.PaymentDetails
		if err := json.Unmarshal(r.Payment, &payment); err != nil {
			return nil, fmt.Errorf("failed to decode payment of booking %s: %w", r.Reference, err)
		}
		booking.Payment = &payment
	}

	return &booking, nil
}

// paymentValue returns the JSON text of p or nil for SQL NULL
func paymentValue(p *models.PaymentDetails) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Create inserts a new booking. A taken reference returns models.ErrDuplicateReference.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}

	data, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("failed to encode booking: %w", err)
	}
	payment, err := paymentValue(booking.Payment)
	if err != nil {
		return fmt.Errorf("failed to encode payment: %w", err)
	}

	query := `
		INSERT INTO bookings (
			id, reference, status, customer_email, pickup_date, total_price, currency,
			data, payment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, query,
		booking.ID, booking.BookingReference, booking.Status, booking.Customer.Email,
		booking.PickupDate, booking.TotalPrice, booking.Currency,
		string(data), payment, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"booking_reference": booking.BookingReference,
		"status":            booking.Status,
	}).Debug("Booking stored")

	return nil
}

// GetByReference retrieves a booking by its reference
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return row.toBooking()
}

// ReferenceExists reports whether a booking already uses reference
func (r *BookingRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bookings WHERE reference = $1)`
	if err := r.db.GetContext(ctx, &exists, query, reference); err != nil {
		return false, fmt.Errorf("failed to check booking reference: %w", err)
	}
	return exists, nil
}

// UpdateStatus writes a status change only if the row still holds update.From.
// A lost race returns models.ErrStatusConflict.
func (r *BookingRepository) UpdateStatus(ctx context.Context, update models.StatusUpdate) error {
	payment, err := paymentValue(update.Payment)
	if err != nil {
		return fmt.Errorf("failed to encode payment: %w", err)
	}

	query := `
		UPDATE bookings
		SET status = $1, payment = COALESCE($2::jsonb, payment), updated_at = $3
		WHERE reference = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query,
		update.To, payment, update.UpdatedAt, update.Reference, update.From,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if rows == 0 {
		exists, err := r.ReferenceExists(ctx, update.Reference)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrBookingNotFound
		}
		return models.ErrStatusConflict
	}

	return nil
}

// List returns bookings newest-first by last activity
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY GREATEST(updated_at, created_at) DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		booking, err := row.toBooking()
		if err != nil {
			r.logger.WithError(err).WithField("booking_reference", row.Reference).Warn("Skipping undecodable booking")
			continue
		}
		bookings = append(bookings, *booking)
	}

	return bookings, nil
}

// CountByStatus aggregates bookings per status
func (r *BookingRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	query := `
		SELECT status, COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS revenue
		FROM bookings
		GROUP BY status
		ORDER BY status`

	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	return counts, nil
}

// CancelStaleDrafts cancels draft bookings created before cutoff
// and returns their references
func (r *BookingRepository) CancelStaleDrafts(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
		RETURNING reference`

	var refs []string
	if err := r.db.SelectContext(ctx, &refs, query, models.BookingStatusCanceled, models.BookingStatusDraft, cutoff); err != nil {
		return nil, fmt.Errorf("failed to cancel stale drafts: %w", err)
	}
	return refs, nil
}
