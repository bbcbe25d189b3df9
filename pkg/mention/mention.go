// Package mention finds student addresses embedded in notification text.
//
// A mention is an "@" immediately followed by an email-shaped token, for
// example "hello @studentagnes@gmail.com". A bare address without the
// leading marker is not a mention.
package mention

import (
	"regexp"
	"strings"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mentionPattern = regexp.MustCompile(`@([^\s@]+@[^\s@]+\.[^\s@]+)`)
)

// Extract returns every mentioned address in order of appearance, without
// the leading marker. Duplicates are kept.
func Extract(text string) []string {
	if text == "" {
		return []string{}
	}
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		result = append(result, m[1])
	}
	return result
}

// IsEmail reports whether s has the local@domain.tld shape accepted by the API.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Normalize trims and lower-cases an address so it can be used as an identity.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeAll normalizes each address, preserving order.
func NormalizeAll(emails []string) []string {
	result := make([]string, 0, len(emails))
	for _, e := range emails {
		result = append(result, Normalize(e))
	}
	return result
}
