package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail trims surrounding whitespace, lowercases and NFC-normalizes
// an email address. Two addresses name the same user iff their normalized
// forms are equal.
func NormalizeEmail(email string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(email)))
}
