package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fyrsmithlabs/incidentd/internal/gazetteer"
	"github.com/fyrsmithlabs/incidentd/internal/temporal"
)

var (
	clockPattern = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	hourPattern  = regexp.MustCompile(`(?i)\b(\d{1,2})h\b`)
	datePattern  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)

	// Span after a location preposition, up to a sentence delimiter or a
	// verb introducing the incident. Only the first group is kept.
	locationPattern  = regexp.MustCompile(`\b(?:no|na|em)\s+(?:escritório\s+de\s+)?([A-ZÁÉÍÓÚÂÊÔÃÕÇ][^,.;]*?)(,|\s+houve|\s+ocorreu|\.|$)`)
	trailingParticle = regexp.MustCompile(`\s*\b(?:da|de|do)\s*$`)

	impactPattern = regexp.MustCompile(`(?i)\b(?:que\s+)?(?:afetou|impactou|deixou)\s+(.*?)(\.|$)`)
)

// relativeDayWords are scanned in order; the first hit ends the scan.
// anteontem must come before ontem, which it contains.
var relativeDayWords = []struct {
	word    string
	pattern *regexp.Regexp
}{
	{"anteontem", regexp.MustCompile(`(?i)\banteontem\b`)},
	{"ontem", regexp.MustCompile(`(?i)\bontem\b`)},
	{"hoje", regexp.MustCompile(`(?i)\bhoje\b`)},
}

// incidentPhrases is the ordered list of known incident types; the first
// match wins.
var incidentPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)falha no servidor`),
	regexp.MustCompile(`(?i)falha (?:geral|total)`),
	regexp.MustCompile(`(?i)queda de energia`),
	regexp.MustCompile(`(?i)pane elétrica`),
	regexp.MustCompile(`(?i)intermitência`),
	regexp.MustCompile(`(?i)incêndio`),
	regexp.MustCompile(`(?i)vazamento`),
	regexp.MustCompile(`(?i)ataque ddos`),
	regexp.MustCompile(`(?i)ataque de ddos`),
	regexp.MustCompile(`(?i)indisponibilidade`),
	regexp.MustCompile(`(?i)erro de aplicação`),
	regexp.MustCompile(`(?i)parada programada`),
	regexp.MustCompile(`(?i)problema de rede`),
	regexp.MustCompile(`(?i)congestionamento de rede`),
	regexp.MustCompile(`(?i)falha de banco de dados`),
}

// genericIncidentLabel is emitted when no known phrase matches but the
// text still reports an occurrence.
const genericIncidentLabel = "Incidente reportado"

// RuleExtractor is the deterministic extraction path. It is a total
// function over text: it never fails, and unresolved fields come back as
// empty strings.
type RuleExtractor struct {
	matcher  *gazetteer.Matcher
	resolver *temporal.Resolver
}

// NewRuleExtractor creates the rule-based extractor.
func NewRuleExtractor(matcher *gazetteer.Matcher, resolver *temporal.Resolver) *RuleExtractor {
	return &RuleExtractor{matcher: matcher, resolver: resolver}
}

// Extract derives all four fields from normalized text. refISO anchors
// relative expressions; when empty or unparsable the current instant in
// the configured zone is used instead.
func (e *RuleExtractor) Extract(text, refISO string) Record {
	var rec Record

	ref, ok := e.resolver.ParseReference(refISO)
	if !ok {
		ref = e.resolver.Now()
	}

	rec.OccurredAt = e.extractOccurrence(text, ref)
	rec.Location = e.extractLocation(text)
	rec.IncidentType = extractIncidentType(text)
	rec.Impact = extractImpact(text)

	return rec
}

// extractOccurrence resolves the occurrence timestamp. Heuristic order:
// an explicit HH:MM beats a bare "<N>h"; the matched time lands on the
// day named by a relative-day word when one is present, today otherwise.
// An explicit D/M/Y date overrides the date portion, or anchors a
// midnight instant when no time matched. A relative-day word alone keeps
// the reference clock time.
func (e *RuleExtractor) extractOccurrence(text string, ref time.Time) string {
	var dt time.Time
	var have bool

	hour, minute, hasTime := findTimeOfDay(text)
	if hasTime {
		base := e.relativeBase(text, ref)
		dt = time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, e.resolver.Location())
		have = true
	}

	if m := datePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if validDate(year, month, day) {
			h, mi := 0, 0
			if have {
				h, mi = dt.Hour(), dt.Minute()
			}
			dt = time.Date(year, time.Month(month), day, h, mi, 0, 0, e.resolver.Location())
			have = true
		} else {
			// An impossible explicit date discards the candidate.
			have = false
		}
	}

	if !have {
		for _, w := range relativeDayWords {
			if w.pattern.MatchString(text) {
				if t, ok := e.resolver.Resolve(w.word, ref); ok {
					dt = t
					have = true
				}
				break
			}
		}
	}

	if !have {
		return ""
	}
	return e.resolver.Canonical(dt)
}

// relativeBase returns the day a matched clock time belongs to: the day
// named by the first relative-day word, or today when none is present.
func (e *RuleExtractor) relativeBase(text string, ref time.Time) time.Time {
	for _, w := range relativeDayWords {
		if w.pattern.MatchString(text) {
			if t, ok := e.resolver.Resolve(w.word, ref); ok {
				return t
			}
			break
		}
	}
	if t, ok := e.resolver.Resolve("hoje", ref); ok {
		return t
	}
	return e.resolver.Now()
}

// extractLocation prefers an exact gazetteer hit anywhere in the text,
// then the preposition-regex span, then the capitalized-phrase fallback.
func (e *RuleExtractor) extractLocation(text string) string {
	if name, ok := e.matcher.Lookup(text); ok {
		return name
	}
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		loc := strings.TrimSpace(m[1])
		loc = trailingParticle.ReplaceAllString(loc, "")
		return strings.TrimSpace(loc)
	}
	return e.matcher.DetectEntity(text)
}

func extractIncidentType(text string) string {
	for _, re := range incidentPhrases {
		if m := re.FindString(text); m != "" {
			return capitalize(strings.TrimSpace(m))
		}
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "houve") || strings.Contains(lower, "ocorreu") {
		return genericIncidentLabel
	}
	return ""
}

func extractImpact(text string) string {
	if m := impactPattern.FindStringSubmatch(text); m != nil {
		return capitalize(strings.TrimSpace(m[1]))
	}
	return ""
}

// findTimeOfDay matches HH:MM first, then a bare "<N>h". Out-of-range
// values are ignored rather than carried into date arithmetic.
func findTimeOfDay(text string) (hour, minute int, ok bool) {
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			return h, mi, true
		}
	}
	if m := hourPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h <= 23 {
			return h, 0, true
		}
	}
	return 0, 0, false
}

// validDate rejects day-month-year triples that time.Date would silently
// normalize.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= lastDay
}

// capitalize upper-cases the first rune and lower-cases the rest, the way
// the incident-type labels are canonicalized.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
