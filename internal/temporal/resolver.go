// Package temporal resolves Portuguese date/time expressions into
// zone-aware instants anchored on a reference point in time.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultZone is used when the configured time zone cannot be loaded.
const DefaultZone = "America/Sao_Paulo"

// canonicalLayout is the fixed output format for occurrence timestamps.
const canonicalLayout = "2006-01-02 15:04"

// referenceLayouts are tried in order when parsing a caller-supplied
// reference instant. RFC3339 covers offset-carrying inputs; the rest are
// interpreted in the resolver's zone.
var referenceLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	dayBeforeYesterdayWord = regexp.MustCompile(`\banteontem\b`)
	yesterdayWord          = regexp.MustCompile(`\bontem\b`)
	todayWord              = regexp.MustCompile(`\bhoje\b`)
	numericDate            = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\b`)
	clockTime              = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	hourOnly               = regexp.MustCompile(`(?i)\b(\d{1,2})h\b`)
)

// Resolver resolves relative and numeric date expressions against a
// reference instant, always in a single configured zone.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver creates a resolver for the given IANA zone identifier.
// An invalid identifier falls back to DefaultZone rather than failing.
func NewResolver(zone string) *Resolver {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc, err = time.LoadLocation(DefaultZone)
		if err != nil {
			// No tzdata at all. BRT has no DST since 2019.
			loc = time.FixedZone("-03", -3*60*60)
		}
	}
	return &Resolver{loc: loc, now: time.Now}
}

// Location returns the resolver's zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the current instant in the resolver's zone.
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// ParseReference parses a caller-supplied ISO-8601 reference instant.
// ok is false when the value is empty or unparsable; callers fall back to
// Now rather than treating this as an error.
func (r *Resolver) ParseReference(iso string) (time.Time, bool) {
	s := strings.TrimSpace(iso)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(r.loc), true
	}
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Resolve interprets a date expression against the reference instant.
// Supported forms, in precedence order: the relative-day words anteontem,
// ontem and hoje (which keep the reference clock time), numeric
// day-month-year dates (2-digit years are 2000s; a missing year resolves
// to the most recent past occurrence), and bare clock times. ok is false
// when nothing in the expression is recognized.
func (r *Resolver) Resolve(expr string, ref time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(expr))
	if text == "" {
		return time.Time{}, false
	}
	ref = ref.In(r.loc)

	if offset, ok := relativeDayOffset(text); ok {
		return ref.AddDate(0, 0, offset), true
	}

	hour, minute, hasTime := findClock(text)

	if m := numericDate.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if t, ok := r.buildDate(year, month, day, hour, minute, ref); ok {
			return t, true
		}
		return time.Time{}, false
	}

	if hasTime {
		t := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, r.loc)
		if t.After(ref) {
			// Prefer the most recent past occurrence.
			t = t.AddDate(0, 0, -1)
		}
		return t, true
	}

	return time.Time{}, false
}

// Canonical renders an instant in the resolver's zone as YYYY-MM-DD HH:MM.
func (r *Resolver) Canonical(t time.Time) string {
	return t.In(r.loc).Format(canonicalLayout)
}

// relativeDayOffset maps relative-day words to day offsets. anteontem is
// checked first because it contains ontem.
func relativeDayOffset(text string) (int, bool) {
	switch {
	case dayBeforeYesterdayWord.MatchString(text):
		return -2, true
	case yesterdayWord.MatchString(text):
		return -1, true
	case todayWord.MatchString(text):
		return 0, true
	}
	return 0, false
}

// findClock extracts an HH:MM or bare "<N>h" time from the expression.
func findClock(text string) (hour, minute int, ok bool) {
	if m := clockTime.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			return h, mi, true
		}
	}
	if m := hourOnly.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h <= 23 {
			return h, 0, true
		}
	}
	return 0, 0, false
}

// buildDate validates and assembles a numeric date. A missing year (zero)
// resolves to the reference year, rolled back one year when the result
// would land in the future.
func (r *Resolver) buildDate(year, month, day, hour, minute int, ref time.Time) (time.Time, bool) {
	inferYear := year == 0
	if inferYear {
		year = ref.Year()
	}
	if !validDate(year, month, day) {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, r.loc)
	if inferYear && t.After(ref) {
		t = time.Date(year-1, time.Month(month), day, hour, minute, 0, 0, r.loc)
	}
	return t, true
}

// validDate reports whether the day-month-year triple denotes a real
// calendar date. time.Date would silently normalize overflow instead.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= lastDay
}
