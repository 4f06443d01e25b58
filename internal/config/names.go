package config

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// CleanName trims and NFC-normalizes a section name.
func CleanName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// FoldName is the case-insensitive identity of a section name: the full
// Unicode case folding of CleanName, so "straße" and "STRASSE" match.
func FoldName(name string) string {
	return cases.Fold().String(CleanName(name))
}
