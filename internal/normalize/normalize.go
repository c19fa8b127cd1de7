// Package normalize cleans raw incident report text before extraction.
//
// Both extraction paths expect compact hour notation ("14h", "14:30") and
// single-spaced prose; normalization happens once, ahead of the fan-out.
package normalize

import (
	"regexp"
	"strings"
)

var (
	multiSpace       = regexp.MustCompile(`\s+`)
	hourSuffix       = regexp.MustCompile(`(?i)(\d{1,2})\s*h\b`)
	clockSpacing     = regexp.MustCompile(`(\d{1,2})\s*:\s*(\d{2})`)
	spaceBeforePunct = regexp.MustCompile(`\s+([,.;:])`)
	commaNoSpace     = regexp.MustCompile(`,(\S)`)
)

// Text normalizes an incident description. It collapses whitespace runs,
// compacts hour notation ("14 h" -> "14h", "14 : 30" -> "14:30"), strips
// whitespace before punctuation and guarantees a single space after commas.
// The function is total: it never fails, and empty input yields "".
func Text(s string) string {
	if s == "" {
		return ""
	}

	t := strings.TrimSpace(s)
	t = multiSpace.ReplaceAllString(t, " ")
	t = hourSuffix.ReplaceAllString(t, "${1}h")
	t = clockSpacing.ReplaceAllString(t, "$1:$2")
	t = spaceBeforePunct.ReplaceAllString(t, "$1")
	t = commaNoSpace.ReplaceAllString(t, ", $1")

	return t
}
