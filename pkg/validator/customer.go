package validator

import (
	"errors"
	"strings"
	"unicode"

	playground "github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyEmail indicates email is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates email is not a bare address
	ErrInvalidEmail = errors.New("email address is invalid")

	// ErrEmptyName indicates a name field is empty
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidName indicates a name contains characters other than letters, spaces, dots, apostrophes or dashes
	ErrInvalidName = errors.New("name contains invalid characters")
)

const maxNameLength = 100

var fieldRules = playground.New()

// FieldError ties a validation error to the form field it came from
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// CustomerValidator validates the contact details entered on the booking form
type CustomerValidator struct {
	phone *PhoneValidator
}

// NewCustomerValidator creates a new customer validator instance
func NewCustomerValidator() *CustomerValidator {
	return &CustomerValidator{phone: NewPhoneValidator()}
}

// ValidateEmail returns the normalized (trimmed, lowercased) address
func (v *CustomerValidator) ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyEmail
	}

	if err := fieldRules.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

// ValidateName returns the trimmed name
func (v *CustomerValidator) ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > maxNameLength {
		return "", ErrInvalidName
	}

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '\'', '.':
			continue
		}
		return "", ErrInvalidName
	}

	return name, nil
}

// ValidatePhone returns the sanitized phone number
func (v *CustomerValidator) ValidatePhone(phone string) (string, error) {
	return v.phone.Validate(phone)
}

// Contact is the subset of customer fields that get validated
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// ValidateContact validates and normalizes every contact field.
// The first failing field is returned as a *FieldError.
func (v *CustomerValidator) ValidateContact(c Contact) (Contact, error) {
	var out Contact
	var err error

	if out.FirstName, err = v.ValidateName(c.FirstName); err != nil {
		return Contact{}, &FieldError{Field: "firstName", Err: err}
	}
	if out.LastName, err = v.ValidateName(c.LastName); err != nil {
		return Contact{}, &FieldError{Field: "lastName", Err: err}
	}
	if out.Email, err = v.ValidateEmail(c.Email); err != nil {
		return Contact{}, &FieldError{Field: "email", Err: err}
	}
	if out.Phone, err = v.ValidatePhone(c.Phone); err != nil {
		return Contact{}, &FieldError{Field: "phone", Err: err}
	}

	return out, nil
}
