// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var (
	// International format: + prefix followed by 8-15 digits, no leading zero.
	phoneRegex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// NormalizePhone strips the separators people usually type into phone numbers.
func NormalizePhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return r.Replace(strings.TrimSpace(phone))
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// ValidateEmail checks the syntax of an email address.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}
