package services

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		expected error
	}{
		{password: "Short1", expected: ErrWeakPassword},
		{password: "alllowercase1", expected: ErrWeakPassword},
		{password: "ALLUPPERCASE1", expected: ErrWeakPassword},
		{password: "NoDigitsHere", expected: ErrWeakPassword},
		{password: "Ünïcode1ok", expected: nil},
		{password: "StrongPass1", expected: nil},
		{password: "StrongPass1" + strings.Repeat("x", MaxPasswordBytes), expected: ErrPasswordTooLong},
	}

	for _, testCase := range cases {
		if err := ValidatePasswordStrength(testCase.password); !errors.Is(err, testCase.expected) {
			t.Fatalf("ValidatePasswordStrength(%q) = %v, want %v", testCase.password, err, testCase.expected)
		}
	}
}
