package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

// PaymentEventRepository stores the webhook audit trail
type PaymentEventRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentEventRepository {
	return &PaymentEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends an audit entry
func (r *PaymentEventRepository) Record(ctx context.Context, event *models.PaymentEvent) error {
	if event == nil {
		return fmt.Errorf("payment event cannot be nil")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_events (
			id, event_id, event_type, booking_reference, outcome,
			expected_amount, received_amount, currency, amounts_match,
			previous_status, new_status, error_message, payload, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.EventID, event.EventType, event.BookingReference, event.Outcome,
		event.ExpectedAmount, event.ReceivedAmount, event.Currency, event.AmountsMatch,
		event.PreviousStatus, event.NewStatus, event.ErrorMessage, event.Payload, event.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.EventID,
			"event_type": event.EventType,
		}).Error("Failed to record payment event")
		return fmt.Errorf("failed to record payment event: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   event.ID,
		"event_id":   event.EventID,
		"event_type": event.EventType,
		"outcome":    event.Outcome,
	}).Debug("Payment event recorded")

	return nil
}

// ListByReference returns the audit trail of one booking, newest first
func (r *PaymentEventRepository) ListByReference(ctx context.Context, reference string) ([]models.PaymentEvent, error) {
	query := `
		SELECT id, event_id, event_type, booking_reference, outcome,
		       expected_amount, received_amount, currency, amounts_match,
		       previous_status, new_status, error_message, payload, created_at
		FROM payment_events
		WHERE booking_reference = $1
		ORDER BY created_at DESC`

	var events []models.PaymentEvent
	if err := r.db.SelectContext(ctx, &events, query, reference); err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	return events, nil
}
