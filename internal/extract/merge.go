package extract

import "strings"

// Merge reconciles the two extraction paths into one candidate record.
// Per-field precedence: the LLM value wins whenever it is present and
// non-blank, regardless of how confident the rule-based match was; the
// rule-based value fills the rest. The result always carries exactly the
// four canonical keys. Non-string LLM values pass through untouched so
// schema validation can reject them.
func Merge(llm LLMResult, rules Record) map[string]any {
	rb := rules.AsMap()
	out := make(map[string]any, len(Fields))
	for _, k := range Fields {
		v, present := llm[k]
		if present && !isBlank(v) {
			out[k] = v
			continue
		}
		out[k] = rb[k]
	}
	return out
}

// isBlank reports whether a decoded JSON value carries no usable content:
// null, whitespace-only strings, zero numbers, false, empty containers.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
