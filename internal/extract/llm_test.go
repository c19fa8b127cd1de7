package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fyrsmithlabs/incidentd/internal/temporal"
)

func newTestClient(url string) *Client {
	return NewClient(url, "test-model", 5*time.Second, temporal.NewResolver(temporal.DefaultZone))
}

// fakeChat answers /api/chat with the given message content.
func fakeChat(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if req.Options.Temperature != 0 {
			t.Errorf("temperature = %v, want 0", req.Options.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want system + user", req.Messages)
		}

		resp := map[string]any{
			"message": map[string]any{"role": "assistant", "content": content},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_Extract(t *testing.T) {
	srv := fakeChat(t, `{"data_ocorrencia": "2024-08-09 14:00", "local": "São Paulo", "tipo_incidente": "Falha no servidor", "impacto": ""}`)
	defer srv.Close()

	got := newTestClient(srv.URL).Extract(context.Background(), "texto do incidente", "2024-08-10T10:00:00-03:00")
	if got == nil {
		t.Fatal("Extract() = nil, want result")
	}
	if got["local"] != "São Paulo" {
		t.Errorf("local = %v, want São Paulo", got["local"])
	}
	if got["impacto"] != "" {
		t.Errorf("impacto = %v, want empty string", got["impacto"])
	}
}

func TestClient_Extract_RecoversEmbeddedJSON(t *testing.T) {
	srv := fakeChat(t, "Claro! Aqui está o resultado:\n{\"local\": \"Recife\"}\nEspero ter ajudado.")
	defer srv.Close()

	got := newTestClient(srv.URL).Extract(context.Background(), "texto", "")
	if got == nil {
		t.Fatal("Extract() = nil, want recovered result")
	}
	if got["local"] != "Recife" {
		t.Errorf("local = %v, want Recife", got["local"])
	}
}

func TestClient_Extract_ResponseFieldFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": `{"local": "Manaus"}`})
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).Extract(context.Background(), "texto", "")
	if got == nil || got["local"] != "Manaus" {
		t.Fatalf("Extract() = %v, want local=Manaus", got)
	}
}

func TestClient_Extract_NoResult(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unparsable content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"message": map[string]any{"content": "não há JSON aqui"},
				})
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{})
			},
		},
		{
			name: "body is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>proxy error</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if got := newTestClient(srv.URL).Extract(context.Background(), "texto", ""); got != nil {
				t.Errorf("Extract() = %v, want nil", got)
			}
		})
	}
}

func TestClient_Extract_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	got := newTestClient(srv.URL).Extract(ctx, "texto", "")
	if got != nil {
		t.Errorf("Extract() = %v, want nil on cancelled context", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Extract() took %v, want prompt return after cancellation", elapsed)
	}
}

func TestParseObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantNil bool
		key     string
		value   string
	}{
		{"direct object", `{"local": "Belém"}`, false, "local", "Belém"},
		{"wrapped in prose", `resultado: {"local": "Belém"} fim`, false, "local", "Belém"},
		{"json null", `null`, true, "", ""},
		{"json array", `[1, 2]`, true, "", ""},
		{"plain text", `sem json`, true, "", ""},
		{"broken braces", `{"local": `, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseObject(tt.content)
			if tt.wantNil {
				if got != nil {
					t.Errorf("parseObject(%q) = %v, want nil", tt.content, got)
				}
				return
			}
			if got == nil || got[tt.key] != tt.value {
				t.Errorf("parseObject(%q) = %v, want %s=%s", tt.content, got, tt.key, tt.value)
			}
		})
	}
}
