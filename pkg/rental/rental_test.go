package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := ParseDate(value)
	require.NoError(t, err)
	return parsed
}

func TestInclusiveDays_SameCalendarDate(t *testing.T) {
	tests := []struct {
		pickup  string
		dropoff string
	}{
		{"2025-08-19T00:00", "2025-08-19T23:59"},
		{"2025-08-19T09:00", "2025-08-19T09:00"},
		{"2025-08-19T23:00", "2025-08-19T01:00"},
		{"2025-08-19", "2025-08-19"},
	}

	for _, tt := range tests {
		t.Run(tt.pickup+"_"+tt.dropoff, func(t *testing.T) {
			assert.Equal(t, 1, InclusiveDays(mustParse(t, tt.pickup), mustParse(t, tt.dropoff)))
		})
	}
}

func TestInclusiveDays_CrossingOneMidnight(t *testing.T) {
	assert.Equal(t, 2, InclusiveDays(mustParse(t, "2025-08-19T23:30"), mustParse(t, "2025-08-20T00:30")))
	assert.Equal(t, 2, InclusiveDays(mustParse(t, "2025-12-31T22:00"), mustParse(t, "2026-01-01T06:00")))
}

func TestInclusiveDays_DropoffBeforePickupClampsToOne(t *testing.T) {
	assert.Equal(t, 1, InclusiveDays(mustParse(t, "2025-08-20"), mustParse(t, "2025-08-10")))
}

func TestInclusiveDays_AcrossDSTChange(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		t.Skip("tzdata not available")
	}
	pickup := time.Date(2025, 3, 29, 10, 0, 0, 0, athens)
	dropoff := time.Date(2025, 3, 31, 10, 0, 0, 0, athens)

	assert.Equal(t, 3, InclusiveDays(pickup, dropoff))
}

func TestCalculateInclusiveDisplayDays(t *testing.T) {
	days, err := CalculateInclusiveDisplayDays("2025-08-25", "2025-08-28")
	require.NoError(t, err)
	assert.Equal(t, 4, days)

	days, err = CalculateInclusiveDisplayDays("2025-08-19T03:00", "2025-08-20T03:00")
	require.NoError(t, err)
	assert.Equal(t, 2, days)

	_, err = CalculateInclusiveDisplayDays("tomorrow", "2025-08-20")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseDateTime(t *testing.T) {
	parsed, err := ParseDateTime("2025-08-19", "21:15")
	require.NoError(t, err)
	assert.Equal(t, 21, parsed.Hour())
	assert.Equal(t, 15, parsed.Minute())

	parsed, err = ParseDateTime("2025-08-19", "")
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Hour())
}

func TestIsLateDropoff(t *testing.T) {
	assert.False(t, IsLateDropoff(mustParse(t, "2025-08-19T19:59"), 20))
	assert.True(t, IsLateDropoff(mustParse(t, "2025-08-19T20:00"), 20))
	assert.True(t, IsLateDropoff(mustParse(t, "2025-08-19T23:30"), 0))
	assert.True(t, IsLateDropoff(mustParse(t, "2025-08-19T18:00"), 18))
}

func TestCalculateQuote(t *testing.T) {
	catalogue := Catalogue{ExtraGPS: 4, ExtraChildSeat: 3}

	quote := CalculateQuote(35.5, 4, []Extra{ExtraGPS, ExtraChildSeat}, catalogue)

	assert.Equal(t, 4, quote.Days)
	assert.Equal(t, 142.0, quote.CarTotal)
	assert.Equal(t, 28.0, quote.ExtrasTotal)
	assert.Equal(t, 170.0, quote.Total)
}

func TestCalculateQuote_NoExtrasAndMinimumDay(t *testing.T) {
	quote := CalculateQuote(40, 0, nil, nil)

	assert.Equal(t, 1, quote.Days)
	assert.Equal(t, 40.0, quote.Total)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(12999), ToMinorUnits(129.99))
	assert.Equal(t, int64(1), ToMinorUnits(0.005))
	assert.Equal(t, 129.99, FromMinorUnits(12999))
}

func TestFormatLocationName(t *testing.T) {
	assert.Equal(t, "Agia-Marina", FormatLocationName("agia-marina"))
	assert.Equal(t, "Hersonissos", FormatLocationName("HERSONISSOS"))
	assert.Equal(t, "Heraklion-Airport", FormatLocationName("heraklion-AIRPORT"))
	assert.Equal(t, "", FormatLocationName("  "))
}

func TestNormalizeLocationCode(t *testing.T) {
	assert.Equal(t, "agia-marina", NormalizeLocationCode("  Agia Marina "))
	assert.Equal(t, "hersonissos", NormalizeLocationCode("HERSONISSOS"))
}

func TestLocations(t *testing.T) {
	locations := Locations()
	require.NotEmpty(t, locations)
	for _, location := range locations {
		assert.Equal(t, FormatLocationName(location.Code), location.Name)
	}
}
