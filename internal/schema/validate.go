// Package schema enforces the strict response contract on extracted
// incident records. The schema is small and fixed, so it is checked by an
// explicit ordered rule set rather than a schema-validation dependency.
package schema

import (
	"regexp"
	"sort"
)

// RequiredFields are the four canonical keys; no other key is permitted.
var RequiredFields = []string{"data_ocorrencia", "local", "tipo_incidente", "impacto"}

// FieldOccurredAt carries the only format-constrained value.
const FieldOccurredAt = "data_ocorrencia"

// timestampPattern is the canonical occurrence format, YYYY-MM-DD HH:MM.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

// ValidationError aggregates every violation of the first failed rule
// category. Error surfaces the first message, which is what the HTTP
// boundary returns with a 422.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return e.Violations[0]
}

// Validate checks a candidate record. Rule categories run in order and
// the first failing category aborts with all of its violations:
//
//  1. the candidate must be an object
//  2. all four canonical keys must be present
//  3. no other keys are allowed
//  4. every value must be a string
//  5. data_ocorrencia must be empty or match YYYY-MM-DD HH:MM
//
// A nil return means the record is acceptable.
func Validate(candidate any) error {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return &ValidationError{Violations: []string{"must be object"}}
	}

	var violations []string
	for _, f := range RequiredFields {
		if _, present := obj[f]; !present {
			violations = append(violations, "missing required field: "+f)
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	allowed := make(map[string]bool, len(RequiredFields))
	for _, f := range RequiredFields {
		allowed[f] = true
	}
	var extras []string
	for k := range obj {
		if !allowed[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		violations = append(violations, "key not allowed: "+k)
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	values := make(map[string]string, len(RequiredFields))
	for _, f := range RequiredFields {
		s, ok := obj[f].(string)
		if !ok {
			violations = append(violations, "field "+f+" must be a string")
			continue
		}
		values[f] = s
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	if d := values[FieldOccurredAt]; d != "" && !timestampPattern.MatchString(d) {
		return &ValidationError{Violations: []string{
			FieldOccurredAt + " must be empty or match YYYY-MM-DD HH:MM",
		}}
	}

	return nil
}
