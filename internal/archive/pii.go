package archive

import (
	"crypto/sha256"
	"fmt"
	"regexp"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// Australian numbers as customers type them into free text: 0412 345 678,
	// (03) 9876 5432, +61 412 345 678.
	phoneRe = regexp.MustCompile(`(\+61[\s-]?|\(?0\d\)?[\s-]?)\d{1,4}[\s-]?\d{3,4}[\s-]?\d{3,4}`)
)

// HashPhone returns the hex-encoded SHA-256 hash of a phone number.
func HashPhone(phone string) string {
	h := sha256.Sum256([]byte(phone))
	return fmt.Sprintf("%x", h)
}

// ScrubPII replaces emails with [EMAIL] and phone numbers with [PHONE].
// Suburbs and services are kept for reporting.
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}
