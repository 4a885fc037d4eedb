package utils

import "strings"

// NormalizeEmail trims surrounding whitespace. Case is preserved: addresses
// are matched exactly as stored.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
