package services

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeAuthEmail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "normalizes case and spaces", raw: " USER@EXAMPLE.COM ", want: "user@example.com"},
		{name: "invalid email returns empty", raw: "not-email", want: ""},
		{name: "empty returns empty", raw: "   ", want: ""},
		{name: "display name form is rejected", raw: "Ada <ada@example.com>", want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			if got := NormalizeAuthEmail(testCase.raw); got != testCase.want {
				t.Fatalf("NormalizeAuthEmail(%q) = %q, want %q", testCase.raw, got, testCase.want)
			}
		})
	}
}

func TestNormalizeCredentialsInput(t *testing.T) {
	email, password, err := NormalizeCredentialsInput(" USER@EXAMPLE.COM ", "  StrongPass1  ")
	if err != nil {
		t.Fatalf("expected valid credentials input, got %v", err)
	}
	if email != "user@example.com" || password != "StrongPass1" {
		t.Fatalf("unexpected normalized credentials %q / %q", email, password)
	}

	_, _, err = NormalizeCredentialsInput("not-email", "StrongPass1")
	if !errors.Is(err, ErrAuthCredentialsInvalid) {
		t.Fatalf("expected ErrAuthCredentialsInvalid for invalid email, got %v", err)
	}

	_, _, err = NormalizeCredentialsInput("user@example.com", " ")
	if !errors.Is(err, ErrAuthCredentialsInvalid) {
		t.Fatalf("expected ErrAuthCredentialsInvalid for empty password, got %v", err)
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	name, err := NormalizeDisplayName("  Ada   Lovelace ")
	if err != nil {
		t.Fatalf("expected valid display name, got %v", err)
	}
	if name != "Ada Lovelace" {
		t.Fatalf("expected collapsed spaces, got %q", name)
	}

	if _, err := NormalizeDisplayName(strings.Repeat("x", MaxDisplayNameLength+1)); !errors.Is(err, ErrDisplayNameTooLong) {
		t.Fatalf("expected ErrDisplayNameTooLong, got %v", err)
	}
}
