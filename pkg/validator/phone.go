package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits and an optional leading +")

	// ErrInvalidLength indicates phone number has too few or too many digits
	ErrInvalidLength = errors.New("phone number must have between 7 and 15 digits")
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// phoneRegex matches an optional + followed by digits only
var phoneRegex = regexp.MustCompile(`^\+?\d+$`)

// PhoneValidator handles international phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates an international phone number
// Accepts format: +30 2810 123456, 0030-2810-123456, (2810) 123456
// Returns sanitized phone number (+ and digits) and error if invalid
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	digits := strings.TrimPrefix(sanitized, "+")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", ErrInvalidLength
	}

	return sanitized, nil
}

// Sanitize removes separators and rewrites a 00 international prefix as +
func (v *PhoneValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "/", "")
	phone = replacer.Replace(strings.TrimSpace(phone))

	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}

	return phone
}

// IsInternational reports whether the number carries a country code
func (v *PhoneValidator) IsInternational(phone string) bool {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return false
	}
	return strings.HasPrefix(sanitized, "+")
}
