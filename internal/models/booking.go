package models

import (
	"errors"
	"strings"
	"time"

	"github.com/cretedrive/rental-booking-backend/pkg/rental"
)

var (
	// ErrBookingNotFound is returned when no booking carries the requested reference
	ErrBookingNotFound = errors.New("booking not found")

	// ErrDuplicateReference is returned when a reference is already taken
	ErrDuplicateReference = errors.New("booking reference already exists")

	// ErrStatusConflict is returned when a status write lost a race against another writer
	ErrStatusConflict = errors.New("booking status changed concurrently")
)

// Booking is a car rental reservation. The same JSON shape is used by the
// API, the bookings.data column and the file fallback store.
type Booking struct {
	ID               string            `json:"id"`
	BookingReference string            `json:"bookingReference"`
	Status           BookingStatus     `json:"status"`
	Customer         Customer          `json:"customer"`
	SelectedCar      SelectedCar       `json:"selectedCar"`
	PickupLocation   string            `json:"pickupLocation"`
	DropoffLocation  string            `json:"dropoffLocation"`
	PickupDate       string            `json:"pickupDate"`
	PickupTime       string            `json:"pickupTime,omitempty"`
	ReturnDate       string            `json:"returnDate"`
	ReturnTime       string            `json:"returnTime,omitempty"`
	DurationDays     int               `json:"durationDays"`
	TotalPrice       float64           `json:"totalPrice"`
	Currency         string            `json:"currency"`
	LateDropoff      bool              `json:"lateDropoff"`
	Payment          *PaymentDetails   `json:"payment,omitempty"`
	Source           *SubmissionSource `json:"source,omitempty"`
	CreatedAt        time.Time         `json:"dateSubmitted"`
	UpdatedAt        time.Time         `json:"timestamp"`
}

// Customer holds the contact and add-on details captured by the booking form
type Customer struct {
	FirstName        string `json:"firstName" binding:"notblank"`
	LastName         string `json:"lastName" binding:"notblank"`
	Email            string `json:"email" binding:"required,email"`
	Phone            string `json:"phone" binding:"notblank"`
	Nationality      string `json:"nationality,omitempty"`
	LicenseNumber    string `json:"licenseNumber,omitempty"`
	AdditionalDriver bool   `json:"additionalDriver"`
	FullInsurance    bool   `json:"fullInsurance"`
	GPSNavigation    bool   `json:"gpsNavigation"`
	ChildSeat        bool   `json:"childSeat"`
	Notes            string `json:"notes,omitempty"`
}

// FullName joins first and last name
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Extras lists the add-ons the customer selected
func (c Customer) Extras() []rental.Extra {
	var extras []rental.Extra
	if c.AdditionalDriver {
		extras = append(extras, rental.ExtraAdditionalDriver)
	}
	if c.FullInsurance {
		extras = append(extras, rental.ExtraFullInsurance)
	}
	if c.GPSNavigation {
		extras = append(extras, rental.ExtraGPS)
	}
	if c.ChildSeat {
		extras = append(extras, rental.ExtraChildSeat)
	}
	return extras
}

// SelectedCar is the car chosen for the rental, priced per day
type SelectedCar struct {
	ID       string  `json:"id" binding:"notblank"`
	Name     string  `json:"name" binding:"notblank"`
	Price    float64 `json:"price" binding:"gt=0"`
	Category string  `json:"category,omitempty"`
}

// PaymentDetails is attached to a booking by the webhook reconciler
type PaymentDetails struct {
	PaymentID      string    `json:"payment_id,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	Status         string    `json:"status,omitempty"`
	PaymentMethod  string    `json:"payment_method,omitempty"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	FailureMessage string    `json:"failure_message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Merge returns a copy of p with every non-empty field of next written over it.
// Merging the same details twice gives the same result as merging them once.
func (p *PaymentDetails) Merge(next PaymentDetails) *PaymentDetails {
	var merged PaymentDetails
	if p != nil {
		merged = *p
	}

	if next.PaymentID != "" {
		merged.PaymentID = next.PaymentID
	}
	if next.SessionID != "" {
		merged.SessionID = next.SessionID
	}
	if next.Amount != 0 {
		merged.Amount = next.Amount
	}
	if next.Currency != "" {
		merged.Currency = next.Currency
	}
	if next.Status != "" {
		merged.Status = next.Status
	}
	if next.PaymentMethod != "" {
		merged.PaymentMethod = next.PaymentMethod
	}
	if next.CustomerEmail != "" {
		merged.CustomerEmail = next.CustomerEmail
	}
	if next.FailureMessage != "" {
		merged.FailureMessage = next.FailureMessage
	}
	if !next.Timestamp.IsZero() {
		merged.Timestamp = next.Timestamp
	}

	return &merged
}

// SubmissionSource records where a booking was submitted from
type SubmissionSource struct {
	IP         string `json:"ip,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
	OS         string `json:"os,omitempty"`
	Browser    string `json:"browser,omitempty"`
}

// StatusUpdate is a single-row compare-and-set status write
type StatusUpdate struct {
	Reference string
	From      BookingStatus
	To        BookingStatus
	Payment   *PaymentDetails
	UpdatedAt time.Time
}

// StatusCount aggregates bookings sharing a status
type StatusCount struct {
	Status  BookingStatus `json:"status" db:"status"`
	Count   int           `json:"count" db:"count"`
	Revenue float64       `json:"revenue" db:"revenue"`
}

// BookingFilter narrows a booking listing
type BookingFilter struct {
	Status BookingStatus
	Limit  int
}

// ApplyStatusUpdate returns a copy of b with the update applied
func (b Booking) ApplyStatusUpdate(update StatusUpdate) Booking {
	b.Status = update.To
	if update.Payment != nil {
		payment := *update.Payment
		b.Payment = &payment
	}
	b.UpdatedAt = update.UpdatedAt
	return b
}

// LastActivity is the newest of the update and creation timestamps
func (b Booking) LastActivity() time.Time {
	if b.UpdatedAt.After(b.CreatedAt) {
		return b.UpdatedAt
	}
	return b.CreatedAt
}

// CreateBookingRequest is the public booking form submission
type CreateBookingRequest struct {
	BookingReference string            `json:"bookingReference,omitempty"`
	Customer         Customer          `json:"customer"`
	SelectedCar      SelectedCar       `json:"selectedCar"`
	PickupLocation   string            `json:"pickupLocation" binding:"notblank"`
	DropoffLocation  string            `json:"dropoffLocation" binding:"notblank"`
	PickupDate       string            `json:"pickupDate" binding:"required"`
	PickupTime       string            `json:"pickupTime,omitempty"`
	ReturnDate       string            `json:"returnDate" binding:"required"`
	ReturnTime       string            `json:"returnTime,omitempty"`
	PaymentMethod    PaymentMethod     `json:"paymentMethod,omitempty" binding:"omitempty,oneof=on_arrival card"`
	Currency         string            `json:"currency,omitempty"`
	Source           *SubmissionSource `json:"-"`
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentMethodOnArrival PaymentMethod = "on_arrival"
	PaymentMethodCard      PaymentMethod = "card"
)

// QuoteRequest asks for a price preview without creating a booking
type QuoteRequest struct {
	DailyRate  float64  `json:"dailyRate" binding:"gt=0"`
	PickupDate string   `json:"pickupDate" binding:"required"`
	PickupTime string   `json:"pickupTime,omitempty"`
	ReturnDate string   `json:"returnDate" binding:"required"`
	ReturnTime string   `json:"returnTime,omitempty"`
	Customer   Customer `json:"customer" binding:"-"`
}

// QuoteResponse is the price preview
type QuoteResponse struct {
	rental.Quote
	LateDropoff    bool    `json:"lateDropoff"`
	LateDropoffFee float64 `json:"lateDropoffFee,omitempty"`
}

// UpdateStatusRequest is a staff status change
type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}
