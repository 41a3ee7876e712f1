package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/services"
)

// MaxWebhookBodyBytes caps the webhook request body
const MaxWebhookBodyBytes = 65536

// WebhookHandler receives payment provider events
type WebhookHandler struct {
	stripeService *services.StripeService
	reconciler    *services.WebhookReconciler
	logger        *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(stripeService *services.StripeService, reconciler *services.WebhookReconciler, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		stripeService: stripeService,
		reconciler:    reconciler,
		logger:        logger,
	}
}

// HandleStripe handles POST /api/webhooks.
// The signature is checked before any of the payload is trusted; failures get a
// plain-text 400 and nothing is processed. Store failures get a 500 so Stripe
// redelivers. Everything else is acknowledged.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read webhook body")
		c.String(http.StatusBadRequest, "Webhook Error: unable to read body")
		return
	}

	event, err := h.stripeService.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var sigErr *services.SignatureVerificationError
		if errors.As(err, &sigErr) {
			h.logger.WithError(err).WithField("ip", c.ClientIP()).Warn("Webhook signature verification failed")
		} else {
			h.logger.WithError(err).Warn("Webhook payload could not be decoded")
		}
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), event)
	if err != nil {
		c.String(http.StatusInternalServerError, "Webhook Error: %s", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"outcome":    outcome,
	}).Info("Webhook processed")

	c.JSON(http.StatusOK, gin.H{"received": true})
}
