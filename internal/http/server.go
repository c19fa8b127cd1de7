// Package http provides the HTTP API for incidentd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/extract"
	"github.com/fyrsmithlabs/incidentd/internal/schema"
)

// Extractor runs the extraction pipeline for one report.
type Extractor interface {
	Extract(ctx context.Context, text, refISO string) (extract.Record, error)
}

// Server provides HTTP endpoints for incidentd.
type Server struct {
	echo      *echo.Echo
	extractor Extractor
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host     string
	Port     int
	Timezone string
}

// NewServer creates a new HTTP server. metrics may be nil to skip the
// /metrics endpoint and instrumentation.
func NewServer(extractor Extractor, logger *zap.Logger, cfg *Config, metrics *Metrics) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:     "0.0.0.0",
			Port:     8000,
			Timezone: "America/Sao_Paulo",
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	if metrics != nil {
		e.Use(metrics.Middleware())
	}

	s := &Server{
		echo:      e,
		extractor: extractor,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes(metrics)

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(metrics *Metrics) {
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/example", s.handleExample)
	s.echo.POST("/extract", s.handleExtract)
	if metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}
}

// ExtractRequest is the request body for POST /extract.
type ExtractRequest struct {
	Texto              string `json:"texto"`
	ReferenciaDataHora string `json:"referencia_datahora"`
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Timezone string `json:"tz"`
	Port     int    `json:"port"`
}

// handleHealthz reports liveness plus the effective timezone and port.
func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Timezone: s.config.Timezone,
		Port:     s.config.Port,
	})
}

// handleExample returns a sample request body and the record it yields.
func (s *Server) handleExample(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"request": ExtractRequest{
			Texto:              "Ontem às 14h no escritório de Porto Alegre houve queda de energia que afetou a rede interna por 30 minutos.",
			ReferenciaDataHora: "2024-08-10T10:00:00-03:00",
		},
		"response": extract.Record{
			OccurredAt:   "2024-08-09 14:00",
			Location:     "Porto Alegre (RS)",
			IncidentType: "Queda de energia",
			Impact:       "A rede interna por 30 minutos",
		},
	})
}

// handleExtract runs the extraction pipeline on the submitted report.
func (s *Server) handleExtract(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid extract request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Texto == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "texto field is required")
	}

	rec, err := s.extractor.Extract(c.Request().Context(), req.Texto, req.ReferenciaDataHora)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Error())
		}
		s.logger.Error("extraction failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "extraction failed")
	}

	return c.JSON(http.StatusOK, rec)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
