package models

import "fmt"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusDraft          BookingStatus = "draft"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusNew            BookingStatus = "new"
	BookingStatusPending        BookingStatus = "pending"
	BookingStatusPaid           BookingStatus = "paid"
	BookingStatusPaymentFailed  BookingStatus = "payment_failed"
	BookingStatusPaymentExpired BookingStatus = "payment_expired"
	BookingStatusCanceled       BookingStatus = "canceled"
)

// AllBookingStatuses lists every status in display order
var AllBookingStatuses = []BookingStatus{
	BookingStatusDraft,
	BookingStatusNew,
	BookingStatusConfirmed,
	BookingStatusPending,
	BookingStatusPaid,
	BookingStatusPaymentFailed,
	BookingStatusPaymentExpired,
	BookingStatusCanceled,
}

// bookingTransitions lists the statuses each status may move to.
// Nothing returns to draft; canceled is terminal; paid is confirmed or canceled by staff.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusDraft: {
		BookingStatusPending, BookingStatusConfirmed, BookingStatusCanceled,
		BookingStatusPaid, BookingStatusPaymentFailed, BookingStatusPaymentExpired,
	},
	BookingStatusNew: {
		BookingStatusPending, BookingStatusConfirmed, BookingStatusCanceled,
		BookingStatusPaid, BookingStatusPaymentFailed, BookingStatusPaymentExpired,
	},
	BookingStatusConfirmed: {
		BookingStatusPending, BookingStatusCanceled,
		BookingStatusPaid, BookingStatusPaymentFailed, BookingStatusPaymentExpired,
	},
	BookingStatusPending: {
		BookingStatusPaid, BookingStatusPaymentFailed, BookingStatusPaymentExpired,
		BookingStatusCanceled, BookingStatusConfirmed,
	},
	BookingStatusPaymentFailed: {
		BookingStatusPending, BookingStatusPaid, BookingStatusPaymentExpired,
		BookingStatusConfirmed, BookingStatusCanceled,
	},
	BookingStatusPaymentExpired: {
		BookingStatusPending, BookingStatusConfirmed, BookingStatusCanceled,
	},
	BookingStatusPaid: {
		BookingStatusConfirmed, BookingStatusCanceled,
	},
	BookingStatusCanceled: {},
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// IsTerminal reports whether no other status can follow s
func (s BookingStatus) IsTerminal() bool {
	return s.IsValid() && len(bookingTransitions[s]) == 0
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Re-applying the current status is always allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns an *IllegalTransitionError when s may not move to next
func (s BookingStatus) ValidateTransition(next BookingStatus) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	return &IllegalTransitionError{From: s, To: next}
}

// IllegalTransitionError is returned for a status change the lifecycle forbids
type IllegalTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal booking status transition %s -> %s", e.From, e.To)
}
