package services

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

var (
	ErrWeakPassword    = errors.New("weak password")
	ErrPasswordTooLong = errors.New("password too long")
)

// ValidatePasswordStrength requires MinPasswordLength characters mixing
// upper case, lower case and digits.
func ValidatePasswordStrength(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var upper, lower, digit bool
	for _, char := range password {
		upper = upper || unicode.IsUpper(char)
		lower = lower || unicode.IsLower(char)
		digit = digit || unicode.IsDigit(char)
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
