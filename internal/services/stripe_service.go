package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/models"
	"github.com/cretedrive/rental-booking-backend/pkg/rental"
)

// Provider event types the reconciler acts on
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
	EventPaymentIntentFailed      = "payment_intent.payment_failed"
)

// MetadataBookingReference is the metadata key correlating provider objects to bookings
const MetadataBookingReference = "bookingReference"

// CheckoutSessionInput is everything the provider needs to open a hosted checkout
type CheckoutSessionInput struct {
	BookingReference string
	AmountMinor      int64
	Currency         string
	ProductName      string
	Description      string
	CustomerEmail    string
	Metadata         map[string]string
}

// CheckoutSession is the provider's answer
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutProvider opens hosted checkout sessions
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
}

// ProviderEvent is a verified webhook delivery reduced to what reconciliation needs
type ProviderEvent struct {
	ID               string
	Type             string
	Created          time.Time
	BookingReference string
	Payment          models.PaymentDetails
	Payload          []byte
}

// StripeService talks to Stripe Checkout and verifies Stripe webhooks
type StripeService struct {
	config *config.StripeConfig
	logger *logrus.Logger
	client session.Client
}

// NewStripeService creates a Stripe client bound to the configured secret key
func NewStripeService(cfg *config.StripeConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config: cfg,
		logger: logger,
		client: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey},
	}
}

// IsConfigured reports whether a secret key is set
func (s *StripeService) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// CreateCheckoutSession opens a one-line-item payment session.
// Metadata is set on the session and on its payment intent so both event families carry it.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if !s.IsConfigured() {
		return nil, errors.New("stripe is not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.config.SuccessURL),
		CancelURL:         stripe.String(s.config.CancelURL),
		ClientReferenceID: stripe.String(input.BookingReference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(input.Currency),
					UnitAmount: stripe.Int64(input.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(input.ProductName),
						Description: stripe.String(input.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: input.Metadata,
		},
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := s.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, fmt.Errorf("%s: %w", stripeErr.Msg, err)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference": input.BookingReference,
		"session_id":        sess.ID,
		"amount_minor":      input.AmountMinor,
		"currency":          input.Currency,
	}).Info("Stripe checkout session created")

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header of payload and normalises the event.
// Verification fails closed: without a webhook secret nothing is accepted.
func (s *StripeService) ConstructEvent(payload []byte, signature string) (*ProviderEvent, error) {
	if s.config.WebhookSecret == "" {
		return nil, &SignatureVerificationError{Err: errors.New("webhook secret is not configured")}
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.config.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &SignatureVerificationError{Err: err}
	}

	return normalizeEvent(event, payload)
}

// stripe objects decoded from event.data.object; only the fields used here

type stripeCheckoutSession struct {
	ID                 string            `json:"id"`
	AmountTotal        int64             `json:"amount_total"`
	Currency           string            `json:"currency"`
	PaymentStatus      string            `json:"payment_status"`
	PaymentIntent      expandableID      `json:"payment_intent"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	CustomerEmail      string            `json:"customer_email"`
	Metadata           map[string]string `json:"metadata"`
	CustomerDetails    *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type stripePaymentIntent struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	ReceiptEmail     string            `json:"receipt_email"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// expandableID accepts either an id string or an expanded object with an id
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = expandableID(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

func normalizeEvent(event stripe.Event, payload []byte) (*ProviderEvent, error) {
	pe := &ProviderEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
		Payload: payload,
	}
	if event.Created == 0 {
		pe.Created = time.Now().UTC()
	}
	if event.Data == nil {
		return pe, nil
	}

	switch pe.Type {
	case EventCheckoutSessionCompleted, EventCheckoutSessionExpired:
		var sess stripeCheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		pe.BookingReference = sess.Metadata[MetadataBookingReference]

		if pe.Type == EventCheckoutSessionExpired {
			pe.Payment = models.PaymentDetails{
				SessionID: sess.ID,
				Status:    "expired",
				Timestamp: pe.Created,
			}
			return pe, nil
		}

		email := sess.CustomerEmail
		if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
			email = sess.CustomerDetails.Email
		}
		paymentID := string(sess.PaymentIntent)
		if paymentID == "" {
			paymentID = sess.ID
		}
		var method string
		if len(sess.PaymentMethodTypes) > 0 {
			method = sess.PaymentMethodTypes[0]
		}
		pe.Payment = models.PaymentDetails{
			PaymentID:     paymentID,
			SessionID:     sess.ID,
			Amount:        rental.FromMinorUnits(sess.AmountTotal),
			Currency:      sess.Currency,
			Status:        sess.PaymentStatus,
			PaymentMethod: method,
			CustomerEmail: email,
			Timestamp:     pe.Created,
		}

	case EventPaymentIntentFailed:
		var intent stripePaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		pe.BookingReference = intent.Metadata[MetadataBookingReference]
		pe.Payment = models.PaymentDetails{
			PaymentID:     intent.ID,
			Amount:        rental.FromMinorUnits(intent.Amount),
			Currency:      intent.Currency,
			Status:        "failed",
			CustomerEmail: intent.ReceiptEmail,
			Timestamp:     pe.Created,
		}
		if intent.LastPaymentError != nil {
			pe.Payment.FailureMessage = intent.LastPaymentError.Message
		}
	}

	return pe, nil
}
