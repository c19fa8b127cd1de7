// Package extract implements the dual-path incident field extraction:
// a deterministic rule-based extractor, an LLM-backed extractor against
// an Ollama-compatible chat endpoint, and the merge policy that
// reconciles the two.
package extract

// Canonical field keys of an incident record.
const (
	FieldOccurredAt   = "data_ocorrencia"
	FieldLocation     = "local"
	FieldIncidentType = "tipo_incidente"
	FieldImpact       = "impacto"
)

// Fields lists the canonical keys in output order.
var Fields = []string{FieldOccurredAt, FieldLocation, FieldIncidentType, FieldImpact}

// Record is the four-field extraction result. Absent information is the
// empty string, never a missing key or null.
type Record struct {
	OccurredAt   string `json:"data_ocorrencia"`
	Location     string `json:"local"`
	IncidentType string `json:"tipo_incidente"`
	Impact       string `json:"impacto"`
}

// AsMap returns the record as a candidate object for merging and schema
// validation.
func (r Record) AsMap() map[string]any {
	return map[string]any{
		FieldOccurredAt:   r.OccurredAt,
		FieldLocation:     r.Location,
		FieldIncidentType: r.IncidentType,
		FieldImpact:       r.Impact,
	}
}

// LLMResult is the JSON object parsed from a model response. Values keep
// their decoded JSON types; non-string values flow through the merge into
// schema validation rather than being coerced. A nil LLMResult means the
// LLM path produced no usable output.
type LLMResult map[string]any
