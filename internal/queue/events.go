// Package queue carries booking status changes over RabbitMQ to the
// activity-log consumer.
package queue

import "time"

// DefaultQueueName is the durable queue booking status events are routed to
const DefaultQueueName = "booking.status"

// BookingStatusEvent describes one applied booking status change
type BookingStatusEvent struct {
	BookingReference string    `json:"booking_reference"`
	PreviousStatus   string    `json:"previous_status"`
	Status           string    `json:"status"`
	Source           string    `json:"source"` // webhook, checkout, admin, cron
	EventID          string    `json:"event_id,omitempty"`
	Amount           float64   `json:"amount,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	CustomerEmail    string    `json:"customer_email,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
