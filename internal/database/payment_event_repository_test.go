package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

func setupPaymentEventRepository(t *testing.T) (*PaymentEventRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewPaymentEventRepository(sqlx.NewDb(mockDB, "sqlmock"), quietLogger()), mock
}

func TestPaymentEventRepository_Record(t *testing.T) {
	repo, mock := setupPaymentEventRepository(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		event := models.NewPaymentEvent("evt_1", "checkout.session.completed").
			SetReference("CRAB12CD34").
			SetOutcome(models.OutcomeApplied).
			SetPayload([]byte(`{"id":"evt_1"}`))

		mock.ExpectExec(`INSERT INTO payment_events`).
			WithArgs(event.ID, "evt_1", "checkout.session.completed", sqlmock.AnyArg(), "applied",
				nil, nil, nil, nil, nil, nil, nil, `{"id":"evt_1"}`, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Record(ctx, event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nil Event", func(t *testing.T) {
		assert.Error(t, repo.Record(ctx, nil))
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO payment_events`).
			WillReturnError(fmt.Errorf("disk full"))

		err := repo.Record(ctx, models.NewPaymentEvent("evt_2", "checkout.session.expired"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record payment event")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentEventRepository_ListByReference(t *testing.T) {
	repo, mock := setupPaymentEventRepository(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM payment_events WHERE booking_reference`).
		WithArgs("CRAB12CD34").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "event_type", "booking_reference", "outcome",
			"expected_amount", "received_amount", "currency", "amounts_match",
			"previous_status", "new_status", "error_message", "payload", "created_at",
		}).AddRow(
			"0b0d1a4e-6a3e-4c1f-9d7b-3f2f0e6a8c11", "evt_1", "checkout.session.completed", "CRAB12CD34", "applied",
			140.0, 140.0, "eur", true,
			"pending", "paid", nil, []byte(`{"id":"evt_1"}`), now,
		))

	events, err := repo.ListByReference(context.Background(), "CRAB12CD34")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].EventID)
	assert.Equal(t, models.OutcomeApplied, events[0].Outcome)
	require.NotNil(t, events[0].AmountsMatch)
	assert.True(t, *events[0].AmountsMatch)
	assert.Equal(t, "paid", *events[0].NewStatus)
	assert.Equal(t, "evt_1", events[0].Payload["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
