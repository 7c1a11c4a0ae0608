package handlers

import "strings"

// Validation limits.
const (
	MaxEmailLength  = 254
	MaxTokenLength  = 1024
	MaxBindingBytes = 512
)

// SanitizeEmail trims and lowercases email; returns empty if invalid length.
func SanitizeEmail(email string) string {
	s := strings.TrimSpace(strings.ToLower(email))
	if len(s) > MaxEmailLength {
		return ""
	}
	return s
}

// TruncateToken truncates an opaque token to MaxTokenLength.
func TruncateToken(tok string) string {
	if len(tok) > MaxTokenLength {
		return tok[:MaxTokenLength]
	}
	return tok
}

// SanitizeBinding trims binding context; returns empty if over max length.
func SanitizeBinding(binding string) string {
	s := strings.TrimSpace(binding)
	if len(s) > MaxBindingBytes {
		return ""
	}
	return s
}
