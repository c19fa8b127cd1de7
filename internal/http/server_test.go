package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/extract"
	"github.com/fyrsmithlabs/incidentd/internal/schema"
)

// fakeExtractor returns a canned record or error.
type fakeExtractor struct {
	rec extract.Record
	err error
}

func (f *fakeExtractor) Extract(ctx context.Context, text, refISO string) (extract.Record, error) {
	return f.rec, f.err
}

func setupTestServer(t *testing.T, ex Extractor) *Server {
	t.Helper()
	if ex == nil {
		ex = &fakeExtractor{rec: extract.Record{
			OccurredAt:   "2024-08-09 14:00",
			Location:     "Porto Alegre (RS)",
			IncidentType: "Queda de energia",
			Impact:       "Rede interna",
		}}
	}
	server, err := NewServer(ex, zap.NewNop(), nil, nil)
	require.NoError(t, err)
	return server
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 8000, Timezone: "America/Sao_Paulo"}

		server, err := NewServer(&fakeExtractor{}, zap.NewNop(), cfg, nil)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(&fakeExtractor{}, zap.NewNop(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 8000, server.config.Port)
		assert.Equal(t, "America/Sao_Paulo", server.config.Timezone)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(&fakeExtractor{}, nil, nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when extractor is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "extractor cannot be nil")
	})
}

func TestHandleHealthz(t *testing.T) {
	server := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "America/Sao_Paulo", resp.Timezone)
	assert.Equal(t, 8000, resp.Port)
}

func TestHandleExample(t *testing.T) {
	server := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/example", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "texto")
	assert.Contains(t, rec.Body.String(), "data_ocorrencia")
}

func TestHandleExtract(t *testing.T) {
	t.Run("returns the extracted record", func(t *testing.T) {
		server := setupTestServer(t, nil)

		body, err := json.Marshal(ExtractRequest{
			Texto:              "Ontem às 14h houve queda de energia.",
			ReferenciaDataHora: "2024-08-10T10:00:00-03:00",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/extract", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "2024-08-09 14:00", resp["data_ocorrencia"])
		assert.Equal(t, "Porto Alegre (RS)", resp["local"])
		assert.Equal(t, "Queda de energia", resp["tipo_incidente"])
		assert.Equal(t, "Rede interna", resp["impacto"])
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		server := setupTestServer(t, nil)

		req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader("{not json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing texto", func(t *testing.T) {
		server := setupTestServer(t, nil)

		req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"referencia_datahora": "2024-08-10T10:00:00-03:00"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "texto field is required")
	})

	t.Run("maps validation failure to 422", func(t *testing.T) {
		server := setupTestServer(t, &fakeExtractor{
			err: &schema.ValidationError{Violations: []string{"field local must be a string"}},
		})

		req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"texto": "Ontem houve falha geral."}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "field local must be a string")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	server, err := NewServer(&fakeExtractor{}, zap.NewNop(), nil, m)
	require.NoError(t, err)

	// One instrumented request so the counter has a sample.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.echo.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "incidentd_http_requests_total")
}
