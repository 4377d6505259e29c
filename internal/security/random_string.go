package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	upperAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerAlphabet = "abcdefghijkmnopqrstuvwxyz"
	digitAlphabet = "23456789"

	// PasswordAlphabet leaves out look-alike characters.
	PasswordAlphabet = upperAlphabet + lowerAlphabet + digitAlphabet

	minTemporaryPasswordLength = 8
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// RandomString returns a cryptographically secure, unbiased string of the requested length.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	value := make([]byte, length)
	for index := range value {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position.Int64()]
	}

	return string(value), nil
}

// TemporaryPassword draws from PasswordAlphabet until the result holds an
// upper case letter, a lower case letter and a digit. Lengths below 8 are
// raised to 8.
func TemporaryPassword(length int) (string, error) {
	if length < minTemporaryPasswordLength {
		length = minTemporaryPasswordLength
	}
	for {
		password, err := RandomString(length, PasswordAlphabet)
		if err != nil {
			return "", err
		}
		if strings.ContainsAny(password, upperAlphabet) &&
			strings.ContainsAny(password, lowerAlphabet) &&
			strings.ContainsAny(password, digitAlphabet) {
			return password, nil
		}
	}
}
