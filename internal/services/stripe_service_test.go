package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/cretedrive/rental-booking-backend/internal/config"
)

const testWebhookSecret = "whsec_test_secret"

func newTestStripeService() *StripeService {
	return NewStripeService(&config.StripeConfig{
		WebhookSecret: testWebhookSecret,
		Currency:      "eur",
	}, quietLogger())
}

func signPayload(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func stripeEventPayload(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1PxYz",
  "object": "event",
  "api_version": "2024-06-20",
  "created": 1755693000,
  "type": %q,
  "data": {"object": %s}
}`, eventType, object))
}

func TestStripeService_ConstructEvent_CheckoutCompleted(t *testing.T) {
	svc := newTestStripeService()
	payload := stripeEventPayload(EventCheckoutSessionCompleted, `{
    "id": "cs_test_a1",
    "object": "checkout.session",
    "amount_total": 18800,
    "currency": "eur",
    "payment_status": "paid",
    "payment_intent": "pi_3Pabc",
    "payment_method_types": ["card"],
    "customer_details": {"email": "eleni@example.com"},
    "metadata": {"bookingReference": "CRABCD1234", "carId": "fiat-panda"}
  }`)

	event, err := svc.ConstructEvent(payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_1PxYz", event.ID)
	assert.Equal(t, EventCheckoutSessionCompleted, event.Type)
	assert.Equal(t, "CRABCD1234", event.BookingReference)
	assert.Equal(t, time.Unix(1755693000, 0).UTC(), event.Created)
	assert.Equal(t, "pi_3Pabc", event.Payment.PaymentID)
	assert.Equal(t, "cs_test_a1", event.Payment.SessionID)
	assert.InDelta(t, 188.0, event.Payment.Amount, 0.001)
	assert.Equal(t, "card", event.Payment.PaymentMethod)
	assert.Equal(t, "eleni@example.com", event.Payment.CustomerEmail)
	assert.Equal(t, event.Created, event.Payment.Timestamp)
}

func TestStripeService_ConstructEvent_PaymentFailed(t *testing.T) {
	svc := newTestStripeService()
	payload := stripeEventPayload(EventPaymentIntentFailed, `{
    "id": "pi_fail",
    "object": "payment_intent",
    "amount": 9900,
    "currency": "eur",
    "last_payment_error": {"message": "Your card was declined."},
    "metadata": {"bookingReference": "CRFAIL0001"}
  }`)

	event, err := svc.ConstructEvent(payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "CRFAIL0001", event.BookingReference)
	assert.Equal(t, "Your card was declined.", event.Payment.FailureMessage)
	assert.InDelta(t, 99.0, event.Payment.Amount, 0.001)
}

func TestStripeService_ConstructEvent_Expired(t *testing.T) {
	svc := newTestStripeService()
	payload := stripeEventPayload(EventCheckoutSessionExpired, `{
    "id": "cs_test_exp",
    "object": "checkout.session",
    "payment_intent": null,
    "metadata": {"bookingReference": "CREXP00001"}
  }`)

	event, err := svc.ConstructEvent(payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "CREXP00001", event.BookingReference)
	assert.Equal(t, "cs_test_exp", event.Payment.SessionID)
	assert.Equal(t, "expired", event.Payment.Status)
}

func TestStripeService_ConstructEvent_RejectsBadSignatures(t *testing.T) {
	svc := newTestStripeService()
	payload := stripeEventPayload(EventCheckoutSessionCompleted, `{"id":"cs_1","metadata":{"bookingReference":"CRABCD1234"}}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"wrong secret", signPayload(payload, "whsec_other")},
		{"missing header", ""},
		{"garbage header", "t=1,v1=deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ConstructEvent(payload, tt.signature)
			var sigErr *SignatureVerificationError
			assert.True(t, errors.As(err, &sigErr))
		})
	}

	t.Run("no secret configured", func(t *testing.T) {
		unconfigured := NewStripeService(&config.StripeConfig{}, quietLogger())
		_, err := unconfigured.ConstructEvent(payload, signPayload(payload, ""))
		var sigErr *SignatureVerificationError
		assert.True(t, errors.As(err, &sigErr))
	})
}

func TestStripeService_CreateCheckoutSessionNeedsKey(t *testing.T) {
	svc := newTestStripeService()
	assert.False(t, svc.IsConfigured())

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutSessionInput{BookingReference: "CRABCD1234"})
	assert.Error(t, err)
}
