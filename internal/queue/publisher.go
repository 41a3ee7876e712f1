package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DefaultDialTimeout bounds connecting to the broker from a request path
const DefaultDialTimeout = 3 * time.Second

// Publisher sends booking status events to RabbitMQ over one long-lived
// channel, dialled lazily and redialled after a failure. An empty URL
// disables publishing.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	logger      *logrus.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher creates a publisher for queue on the broker at url
func NewPublisher(url, queue string, logger *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{url: url, queue: queue, dialTimeout: DefaultDialTimeout, logger: logger}
}

// Enabled reports whether a broker is configured
func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

// PublishStatusChange publishes event as a persistent JSON message.
// Errors are logged and returned so callers may ignore them.
func (p *Publisher) PublishStatusChange(ctx context.Context, event BookingStatusEvent) error {
	if !p.Enabled() {
		return nil
	}

	pub, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.logger.WithError(err).Warn("rabbitmq: connect failed")
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		p.logger.WithError(err).Warn("rabbitmq: publish failed")
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"booking_reference": event.BookingReference,
		"status":            event.Status,
		"message_id":        pub.MessageId,
		"queue":             p.queue,
	}).Debug("Booking status event published")

	return nil
}

// Close releases the broker connection
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// channel returns the open channel, dialling when there is none. Caller holds mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

// reset drops the current connection. Caller holds mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// newPublishing encodes event. Events without a provider event id get a
// fresh message id so consumers can still deduplicate redeliveries.
func newPublishing(event BookingStatusEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq marshal: %w", err)
	}

	messageID := event.EventID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    messageID,
		Body:         body,
	}, nil
}
