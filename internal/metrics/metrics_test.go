package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("rental")

	m.WebhookEvents.WithLabelValues("checkout.session.completed", "applied").Inc()
	m.WebhookEvents.WithLabelValues("checkout.session.completed", "applied").Inc()
	m.BookingsCreated.WithLabelValues("draft").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhookEvents.WithLabelValues("checkout.session.completed", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsCreated.WithLabelValues("draft")))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	first := NewMetrics("rental")
	second := NewMetrics("rental")

	first.AdminFallbackRead.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(second.AdminFallbackRead))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("rental")
	m.CheckoutSessions.WithLabelValues("created").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `rental_checkout_sessions_total{result="created"} 1`))
}
