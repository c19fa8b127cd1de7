package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "collapses whitespace runs",
			in:   "Ontem   às  14h houve\tfalha",
			want: "Ontem às 14h houve falha",
		},
		{
			name: "compacts hour suffix",
			in:   "Ontem às 14 h houve falha",
			want: "Ontem às 14h houve falha",
		},
		{
			name: "compacts clock notation",
			in:   "Falha às 14 : 30 no servidor",
			want: "Falha às 14:30 no servidor",
		},
		{
			name: "strips space before punctuation",
			in:   "Falha no servidor , afetou clientes .",
			want: "Falha no servidor, afetou clientes.",
		},
		{
			name: "adds space after comma",
			in:   "Falha no servidor,afetou clientes",
			want: "Falha no servidor, afetou clientes",
		},
		{
			name: "trims surrounding whitespace",
			in:   "  incidente grave  ",
			want: "incidente grave",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"Ontem às 14 h , no escritório de São Paulo,houve uma falha",
		"Falha às 09 : 15 afetou   o faturamento .",
		"",
		"já normalizado, sem ajustes às 14h.",
	}

	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Errorf("Text not idempotent: first %q, second %q", once, twice)
		}
	}
}
