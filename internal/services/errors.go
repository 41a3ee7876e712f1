package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReferenceExhausted is returned when no free booking reference was found
	ErrReferenceExhausted = errors.New("could not allocate a unique booking reference")

	// ErrInvalidCredentials is returned for a failed staff login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive is returned when a disabled staff account logs in
	ErrAccountInactive = errors.New("account is inactive")

	// ErrAlreadyPaid is returned when checkout is requested for a paid booking
	ErrAlreadyPaid = errors.New("booking is already paid")
)

// ValidationError reports a booking request the client has to fix and resubmit
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

func newValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// PaymentProviderError wraps a failed call to the payment provider
type PaymentProviderError struct {
	Message string
	Err     error
}

func (e *PaymentProviderError) Error() string {
	return e.Message
}

func (e *PaymentProviderError) Unwrap() error {
	return e.Err
}

// SignatureVerificationError is returned for a webhook that failed authentication
type SignatureVerificationError struct {
	Err error
}

func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("signature verification failed: %v", e.Err)
}

func (e *SignatureVerificationError) Unwrap() error {
	return e.Err
}

// StoreWriteError is returned when the booking store could not be read or written.
// Webhook deliveries failing with it are answered with 500 so the provider redelivers.
type StoreWriteError struct {
	Reference string
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("booking store failure for %s: %v", e.Reference, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
