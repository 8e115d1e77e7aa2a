// Package logging redacts credentials from strings before they reach the logs.
package logging

import (
	"regexp"
)

const (
	// MaxBodyLogLength is the maximum length of a backend response body to log
	MaxBodyLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Matches bearer tokens, JWT-shaped or opaque
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_.~+/]+=*`)

	// Matches bare JWTs (three base64url segments separated by dots)
	jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]*`)

	// Matches password and token fields in JSON bodies: "password":"..."
	jsonSecretPattern = regexp.MustCompile(`(?i)"(password|token)"\s*:\s*"[^"]*"`)

	// Matches password=xxx style pairs in form-encoded data and messages
	pairSecretPattern = regexp.MustCompile(`(?i)(password|pwd|token)=[^;&\s]+`)
)

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging any error from a backend call.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize removes bearer tokens, JWTs and password/token values from s.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = jsonSecretPattern.ReplaceAllString(sanitized, `"${1}":"`+RedactedText+`"`)
	sanitized = pairSecretPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	return sanitized
}

// SanitizeBody truncates and sanitizes a response body for logging.
func SanitizeBody(body []byte) string {
	return TruncateString(Sanitize(string(body)), MaxBodyLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
