package schema

import (
	"errors"
	"testing"
)

func validCandidate() map[string]any {
	return map[string]any{
		"data_ocorrencia": "2024-08-09 14:00",
		"local":           "Porto Alegre (RS)",
		"tipo_incidente":  "Queda de energia",
		"impacto":         "Rede interna indisponível",
	}
}

func TestValidate_Accepts(t *testing.T) {
	if err := Validate(validCandidate()); err != nil {
		t.Fatalf("Validate(valid) = %v, want nil", err)
	}

	empty := validCandidate()
	empty["data_ocorrencia"] = ""
	if err := Validate(empty); err != nil {
		t.Fatalf("Validate(empty timestamp) = %v, want nil", err)
	}

	allEmpty := map[string]any{
		"data_ocorrencia": "", "local": "", "tipo_incidente": "", "impacto": "",
	}
	if err := Validate(allEmpty); err != nil {
		t.Fatalf("Validate(all empty) = %v, want nil", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]any) any
		wantFirst string
	}{
		{
			name:      "not an object",
			mutate:    func(m map[string]any) any { return "texto" },
			wantFirst: "must be object",
		},
		{
			name: "missing required field",
			mutate: func(m map[string]any) any {
				delete(m, "impacto")
				return m
			},
			wantFirst: "missing required field: impacto",
		},
		{
			name: "extra key not allowed",
			mutate: func(m map[string]any) any {
				m["extra"] = "W"
				return m
			},
			wantFirst: "key not allowed: extra",
		},
		{
			name: "non-string field",
			mutate: func(m map[string]any) any {
				m["local"] = 42.0
				return m
			},
			wantFirst: "field local must be a string",
		},
		{
			name: "bad timestamp format",
			mutate: func(m map[string]any) any {
				m["data_ocorrencia"] = "2024-13-40"
				return m
			},
			wantFirst: "data_ocorrencia must be empty or match YYYY-MM-DD HH:MM",
		},
		{
			name: "relative word as timestamp",
			mutate: func(m map[string]any) any {
				m["data_ocorrencia"] = "yesterday"
				return m
			},
			wantFirst: "data_ocorrencia must be empty or match YYYY-MM-DD HH:MM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mutate(validCandidate()))
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Error() != tt.wantFirst {
				t.Errorf("first violation = %q, want %q", verr.Error(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_AggregatesCategory(t *testing.T) {
	// Two missing keys: both reported, first one surfaces.
	candidate := map[string]any{
		"local":          "X",
		"tipo_incidente": "Y",
	}
	err := Validate(candidate)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("violations = %v, want 2 entries", verr.Violations)
	}
	if verr.Violations[0] != "missing required field: data_ocorrencia" {
		t.Errorf("first violation = %q", verr.Violations[0])
	}
}

func TestValidate_MissingBeatsExtra(t *testing.T) {
	// A missing key is reported before the extra-key category runs.
	candidate := validCandidate()
	delete(candidate, "local")
	candidate["extra"] = "W"

	err := Validate(candidate)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.Error() != "missing required field: local" {
		t.Errorf("first violation = %q, want missing-field message", verr.Error())
	}
}
