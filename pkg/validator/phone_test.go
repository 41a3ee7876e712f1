package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneValidator(t *testing.T) {
	validator := NewPhoneValidator()
	assert.NotNil(t, validator)
}

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"+302810123456", "+302810123456", "Greek landline"},
		{"+30 2810 123456", "+302810123456", "With spaces"},
		{"+30-697-123-4567", "+306971234567", "With dashes"},
		{"0030 697 123 4567", "+306971234567", "00 international prefix"},
		{"(2810) 123456", "2810123456", "With parentheses"},
		{"+44 20 7946 0958", "+442079460958", "UK number"},
		{"6971.234.567", "6971234567", "With dots"},
		{"1234567", "1234567", "Minimum length"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"   ", ErrEmptyPhone, "Whitespace only"},
		{"123456", ErrInvalidLength, "Too short"},
		{"+1234567890123456", ErrInvalidLength, "Too long"},
		{"697123456a", ErrInvalidFormat, "Contains letters"},
		{"697 123 456!", ErrInvalidFormat, "Contains special characters"},
		{"30+6971234567", ErrInvalidFormat, "Plus in the middle"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.Error(t, err)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestSanitize(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
	}{
		{"+30 697 123 4567", "+306971234567"},
		{"0030-697-123-4567", "+306971234567"},
		{"(697) 123/4567", "6971234567"},
		{" 6971234567 ", "6971234567"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, validator.Sanitize(tc.input))
		})
	}
}

func TestIsInternational(t *testing.T) {
	validator := NewPhoneValidator()

	assert.True(t, validator.IsInternational("+30 697 123 4567"))
	assert.True(t, validator.IsInternational("0030 697 123 4567"))
	assert.False(t, validator.IsInternational("697 123 4567"))
	assert.False(t, validator.IsInternational("abc"))
}
