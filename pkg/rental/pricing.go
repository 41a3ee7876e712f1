package rental

import "math"

// Extra identifies an optional add-on billed per rental day
type Extra string

const (
	ExtraAdditionalDriver Extra = "additional_driver"
	ExtraFullInsurance    Extra = "full_insurance"
	ExtraGPS              Extra = "gps"
	ExtraChildSeat        Extra = "child_seat"
)

// Catalogue maps each extra to its per-day price
type Catalogue map[Extra]float64

// DefaultCatalogue holds the per-day add-on prices shown on the booking form
func DefaultCatalogue() Catalogue {
	return Catalogue{
		ExtraAdditionalDriver: 5,
		ExtraFullInsurance:    12,
		ExtraGPS:              4,
		ExtraChildSeat:        3,
	}
}

// Quote is a price breakdown for a rental
type Quote struct {
	Days        int     `json:"durationDays"`
	DailyRate   float64 `json:"dailyRate"`
	CarTotal    float64 `json:"carTotal"`
	ExtrasTotal float64 `json:"extrasTotal"`
	Total       float64 `json:"totalPrice"`
}

// CalculateQuote prices a rental: dailyRate × days plus every selected extra × days
func CalculateQuote(dailyRate float64, days int, extras []Extra, catalogue Catalogue) Quote {
	if days < 1 {
		days = 1
	}
	if catalogue == nil {
		catalogue = DefaultCatalogue()
	}

	carTotal := dailyRate * float64(days)

	var extrasTotal float64
	for _, extra := range extras {
		extrasTotal += catalogue[extra] * float64(days)
	}

	return Quote{
		Days:        days,
		DailyRate:   dailyRate,
		CarTotal:    RoundCents(carTotal),
		ExtrasTotal: RoundCents(extrasTotal),
		Total:       RoundCents(carTotal + extrasTotal),
	}
}

// RoundCents rounds a currency amount to two decimals
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ToMinorUnits converts a decimal currency amount into integer cents
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts integer cents into a decimal currency amount
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}
