// Package normalize provides utilities for normalizing and sanitizing data.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s, used for
// case-insensitive index keys (tag names, emails).
func Fold(s string) string {
	return cases.Fold().String(s)
}

// TagName canonicalizes a raw tag name for display: null bytes removed,
// surrounding whitespace trimmed, internal whitespace runs collapsed to a
// single space. Case is preserved; uniqueness checks fold separately.
func TagName(raw string) string {
	s := strings.TrimSpace(sanitizeString(raw))
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// Email canonicalizes an email address for storage and lookup.
func Email(raw string) string {
	return Fold(strings.TrimSpace(sanitizeString(raw)))
}

// sanitizeString removes null bytes from strings, which can cause
// issues in databases and JSON parsing.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 { // null byte
			return -1 // drop it
		}
		return r
	}, s)
}
