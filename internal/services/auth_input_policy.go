package services

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const MaxDisplayNameLength = 64

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrDisplayNameTooLong     = errors.New("display name too long")
)

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	// ParseAddress also accepts "Name <addr>"; only a bare address counts.
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

func NormalizeDisplayName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", ErrDisplayNameTooLong
	}
	return name, nil
}
