// Package gazetteer provides the static locality table and the matcher
// used by the rule-based extractor to detect place names.
package gazetteer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Entry is a known locality: canonical name, region code and the
// lowercase aliases it may appear under.
type Entry struct {
	Name    string
	Region  string
	Aliases []string
}

// DefaultEntries returns the built-in Brazilian locality table.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "São Paulo", Region: "SP", Aliases: []string{"sao paulo", "sp", "sampa"}},
		{Name: "Rio de Janeiro", Region: "RJ", Aliases: []string{"rio de janeiro", "rj", "rio"}},
		{Name: "Belo Horizonte", Region: "MG", Aliases: []string{"belo horizonte", "bh", "bhz"}},
		{Name: "Brasília", Region: "DF", Aliases: []string{"brasilia", "df"}},
		{Name: "Curitiba", Region: "PR", Aliases: []string{"curitiba", "ctba"}},
		{Name: "Porto Alegre", Region: "RS", Aliases: []string{"porto alegre", "poa"}},
		{Name: "Salvador", Region: "BA", Aliases: []string{"salvador", "ssa"}},
		{Name: "Fortaleza", Region: "CE", Aliases: []string{"fortaleza"}},
		{Name: "Recife", Region: "PE", Aliases: []string{"recife"}},
		{Name: "Manaus", Region: "AM", Aliases: []string{"manaus"}},
		{Name: "Campinas", Region: "SP", Aliases: []string{"campinas"}},
		{Name: "Florianópolis", Region: "SC", Aliases: []string{"florianopolis", "fln"}},
		{Name: "Vitória", Region: "ES", Aliases: []string{"vitoria"}},
		{Name: "Goiânia", Region: "GO", Aliases: []string{"goiania"}},
		{Name: "Belém", Region: "PA", Aliases: []string{"belem"}},
	}
}

// compiledAlias is a pre-folded alias with its whole-word pattern.
type compiledAlias struct {
	canonical string
	folded    string
	pattern   *regexp.Regexp
}

// Matcher finds localities in free text. It is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	aliases []compiledAlias
}

var entityPattern = regexp.MustCompile(`\b(?:[A-ZÁÉÍÓÚÂÊÔÃÕÇ][\wÁÉÍÓÚÂÊÔÃÕÇãõçáéíóúâêôç-]+(?:\s+|$)){1,3}`)

// NewMatcher compiles a matcher over the given table. Pass
// DefaultEntries() for the built-in table; substitute tables keep tests
// hermetic.
func NewMatcher(entries []Entry) *Matcher {
	var aliases []compiledAlias
	for _, e := range entries {
		canonical := e.Name + " (" + e.Region + ")"
		names := append([]string{}, e.Aliases...)
		names = append(names, e.Name)
		for _, alias := range names {
			folded := Fold(alias)
			aliases = append(aliases, compiledAlias{
				canonical: canonical,
				folded:    folded,
				pattern:   regexp.MustCompile(`\b` + regexp.QuoteMeta(folded) + `\b`),
			})
		}
	}
	return &Matcher{aliases: aliases}
}

// Fold strips combining marks after NFD decomposition and lower-cases,
// so "Brasília" and "brasilia" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Lookup scans the text for any gazetteer alias as a whole word and
// returns the canonical "Name (REGION)" form. Among multiple hits the
// longest alias wins, as the more specific match. ok is false when no
// entry matches.
func (m *Matcher) Lookup(text string) (string, bool) {
	folded := Fold(text)
	best := ""
	bestLen := 0
	for _, a := range m.aliases {
		if len(a.folded) > bestLen && a.pattern.MatchString(folded) {
			best = a.canonical
			bestLen = len(a.folded)
		}
	}
	return best, best != ""
}

// DetectEntity falls back to a lightweight capitalized-phrase heuristic:
// runs of 1-3 capitalized words are candidates, and a candidate directly
// preceded by a location preposition is preferred over the first one
// found. Returns "" when the text has no candidate.
func (m *Matcher) DetectEntity(text string) string {
	candidates := entityPattern.FindAllString(text, -1)
	if len(candidates) == 0 {
		return ""
	}
	for _, raw := range candidates {
		ent := strings.TrimSpace(raw)
		preceded := regexp.MustCompile(`(?i)\b(?:no|na|em)\s+` + regexp.QuoteMeta(ent) + `\b`)
		if preceded.MatchString(text) {
			return ent
		}
	}
	return strings.TrimSpace(candidates[0])
}

// Detect applies the full locality contract: gazetteer first, then the
// capitalized-phrase fallback. Returns "" for unknown.
func (m *Matcher) Detect(text string) string {
	if text == "" {
		return ""
	}
	if name, ok := m.Lookup(text); ok {
		return name
	}
	return m.DetectEntity(text)
}
