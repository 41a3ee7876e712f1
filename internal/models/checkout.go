package models

// CheckoutRequest is the body of POST /api/checkout.
// Pointer fields distinguish an omitted object from an empty one.
type CheckoutRequest struct {
	Customer         *Customer         `json:"customer" binding:"required"`
	Car              *SelectedCar      `json:"car" binding:"required"`
	Booking          *CheckoutTrip     `json:"booking" binding:"required"`
	Amount           *float64          `json:"amount" binding:"required,gt=0"`
	Currency         string            `json:"currency,omitempty"`
	BookingReference string            `json:"bookingReference,omitempty"`
	Source           *SubmissionSource `json:"-"`
}

// CheckoutTrip carries the pickup and dropoff of a checkout request
type CheckoutTrip struct {
	PickupLocation  string `json:"pickupLocation" binding:"notblank"`
	DropoffLocation string `json:"dropoffLocation" binding:"notblank"`
	PickupDate      string `json:"pickupDate" binding:"required"`
	PickupTime      string `json:"pickupTime,omitempty"`
	ReturnDate      string `json:"returnDate" binding:"required"`
	ReturnTime      string `json:"returnTime,omitempty"`
}

// CheckoutResponse is returned once a provider session exists
type CheckoutResponse struct {
	Success          bool   `json:"success"`
	SessionID        string `json:"sessionId"`
	URL              string `json:"url,omitempty"`
	BookingReference string `json:"bookingReference"`
}

// AdminBookingList is the admin listing, flagged when served from the file store
type AdminBookingList struct {
	Bookings []Booking `json:"bookings"`
	Count    int       `json:"count"`
	Degraded bool      `json:"degraded"`
}

// BookingStats aggregates bookings for the dashboard
type BookingStats struct {
	ByStatus    []StatusCount `json:"byStatus"`
	Total       int           `json:"total"`
	PaidRevenue float64       `json:"paidRevenue"`
	Degraded    bool          `json:"degraded"`
}
