package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyContact indicates the contact value is empty
	ErrEmptyContact = errors.New("contact value cannot be empty")

	// ErrInvalidEmail indicates the value is not a plausible email address
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidPhone indicates the value is not a plausible phone number
	ErrInvalidPhone = errors.New("phone number must contain 7 to 15 digits, optionally prefixed with +")
)

// emailRegex is a pragmatic email shape check, not an RFC 5322 validator
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// phoneRegex matches an optional + followed by 7-15 digits
var phoneRegex = regexp.MustCompile(`^\+?\d{7,15}$`)

// ContactValidator validates claim contact values before they reach the
// contact-matching gate.
type ContactValidator struct{}

// NewContactValidator creates a new contact validator instance
func NewContactValidator() *ContactValidator {
	return &ContactValidator{}
}

// ValidateEmail checks and trims an email address
func (v *ContactValidator) ValidateEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", ErrEmptyContact
	}
	if !emailRegex.MatchString(trimmed) {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

// ValidatePhone checks a phone number, stripping spaces, dashes and
// parentheses before matching.
func (v *ContactValidator) ValidatePhone(phone string) (string, error) {
	sanitized := v.SanitizePhone(phone)
	if sanitized == "" {
		return "", ErrEmptyContact
	}
	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidPhone
	}
	return sanitized, nil
}

// SanitizePhone strips formatting characters from a phone number
func (v *ContactValidator) SanitizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return replacer.Replace(strings.TrimSpace(phone))
}
