package utils

import (
	"regexp"
	"strings"
)

var urlPasswordRegex = regexp.MustCompile(`(:)([^:@/]+)(@)`)

// MaskURL hides the password part of a connection URL (redis://:pass@host).
func MaskURL(raw string) string {
	return urlPasswordRegex.ReplaceAllString(raw, ":***@")
}

// MaskEmail keeps the first character of the local part and the full domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskToken keeps the last four characters of a bearer token.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return "***" + token[len(token)-4:]
}
