package models

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// JSONB is a custom type for handling JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
// Returns JSON as string for compatibility with simple protocol mode
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// WebhookOutcome records what the reconciler did with a delivery
type WebhookOutcome string

const (
	OutcomeApplied            WebhookOutcome = "applied"
	OutcomeIgnoredEventType   WebhookOutcome = "ignored_event_type"
	OutcomeMissingReference   WebhookOutcome = "missing_reference"
	OutcomeReferenceNotFound  WebhookOutcome = "reference_not_found"
	OutcomeRejectedTransition WebhookOutcome = "rejected_transition"
	OutcomeStoreError         WebhookOutcome = "store_error"
)

// PaymentEvent is an immutable audit entry for a payment provider delivery
type PaymentEvent struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	EventID          string         `json:"event_id" db:"event_id"`
	EventType        string         `json:"event_type" db:"event_type"`
	BookingReference *string        `json:"booking_reference,omitempty" db:"booking_reference"`
	Outcome          WebhookOutcome `json:"outcome" db:"outcome"`

	// Amount tracking
	ExpectedAmount *float64 `json:"expected_amount,omitempty" db:"expected_amount"`
	ReceivedAmount *float64 `json:"received_amount,omitempty" db:"received_amount"`
	Currency       *string  `json:"currency,omitempty" db:"currency"`
	AmountsMatch   *bool    `json:"amounts_match,omitempty" db:"amounts_match"`

	PreviousStatus *string `json:"previous_status,omitempty" db:"previous_status"`
	NewStatus      *string `json:"new_status,omitempty" db:"new_status"`
	ErrorMessage   *string `json:"error_message,omitempty" db:"error_message"`
	Payload        JSONB   `json:"payload,omitempty" db:"payload"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewPaymentEvent creates a new audit entry for a provider event
func NewPaymentEvent(eventID, eventType string) *PaymentEvent {
	return &PaymentEvent{
		ID:        uuid.New(),
		EventID:   eventID,
		EventType: eventType,
		CreatedAt: time.Now(),
	}
}

// SetReference sets the booking reference carried in the event metadata
func (pe *PaymentEvent) SetReference(ref string) *PaymentEvent {
	if ref != "" {
		pe.BookingReference = &ref
	}
	return pe
}

// SetOutcome sets the reconciliation outcome
func (pe *PaymentEvent) SetOutcome(outcome WebhookOutcome) *PaymentEvent {
	pe.Outcome = outcome
	return pe
}

// SetAmounts sets and verifies amounts - returns whether they match
func (pe *PaymentEvent) SetAmounts(expected, received float64, currency string) bool {
	pe.ExpectedAmount = &expected
	pe.ReceivedAmount = &received
	if currency != "" {
		pe.Currency = &currency
	}

	// Compare with tolerance for floating point
	const tolerance = 0.01
	match := math.Abs(expected-received) < tolerance
	pe.AmountsMatch = &match
	return match
}

// SetTransition records the status change that was attempted
func (pe *PaymentEvent) SetTransition(from, to BookingStatus) *PaymentEvent {
	prev, next := string(from), string(to)
	pe.PreviousStatus = &prev
	pe.NewStatus = &next
	return pe
}

// SetError sets error information
func (pe *PaymentEvent) SetError(message string) *PaymentEvent {
	pe.ErrorMessage = &message
	return pe
}

// SetPayload stores the raw event body; a body that is not a JSON object is kept under "raw"
func (pe *PaymentEvent) SetPayload(raw []byte) *PaymentEvent {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		payload = map[string]interface{}{"raw": string(raw)}
	}
	pe.Payload = JSONB(payload)
	return pe
}
