package domain

import "strings"

// NormalizeEmail is the stored and looked-up form of an email address.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// NormalizeCategoryName lower-cases so "Tech" and "tech" collide on the unique index.
func NormalizeCategoryName(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
