// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/ltv/internal/domain/event"
	"github.com/okian/ltv/internal/domain/ingest"
	"github.com/okian/ltv/internal/domain/types"
	"github.com/okian/ltv/pkg/logger"
)

const (
	defaultMaxPayloadBytes = 1 << 20
	defaultReportLimit     = 10
	defaultMaxReportLimit  = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EventDependencies
	ReportDependencies
}

// EventDependencies defines the interface for event ingestion.
type EventDependencies interface {
	// Ingest parses a raw payload into a sealed event set.
	Ingest(ctx context.Context, raw []byte) (*event.Set, ingest.Result, error)
}

// ReportDependencies defines the interface for LTV reports.
type ReportDependencies interface {
	// Report ingests a raw payload and ranks its customers by LTV.
	Report(ctx context.Context, raw []byte, limit int) (types.Report, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxPayloadBytes caps request bodies.
func WithMaxPayloadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPayloadBytes = n
		}
	}
}

// WithReportLimits sets the default and maximum report sizes.
func WithReportLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		if defaultLimit > 0 && maxLimit >= defaultLimit {
			s.defaultLimit = defaultLimit
			s.maxLimit = maxLimit
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxPayloadBytes int64
	defaultLimit    int
	maxLimit        int
	logger          logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	eventsHandler  *EventsHandler
	reportHandler  *ReportHandler
	metricsHandler http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxPayloadBytes: defaultMaxPayloadBytes,
		defaultLimit:    defaultReportLimit,
		maxLimit:        defaultMaxReportLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.eventsHandler = NewEventsHandler(deps, s.maxPayloadBytes, s.logger)
	s.reportHandler = NewReportHandler(deps, s.maxPayloadBytes, s.defaultLimit, s.maxLimit)
	s.metricsHandler = NewMetricsHandler()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvents, "events"))
	mux.HandleFunc("/reports/ltv", MetricsMiddleware(s.reportHandler.HandlePostReport, "reports_ltv"))
	mux.Handle("/metrics", s.metricsHandler)
	s.logger.Info(ctx, "routes registered",
		logger.Int64("maxPayloadBytes", s.maxPayloadBytes),
		logger.Int("maxReportLimit", s.maxLimit))
}

// bodyReader reads request bodies up to max bytes.
type bodyReader struct {
	max int64
}

func (b bodyReader) read(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.max))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrPayloadTooLarge
		}
		return nil, err
	}
	return data, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeBodyError maps a bodyReader failure to a response.
func writeBodyError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrPayloadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", NewKind(op, ErrPayloadTooLarge))
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
}

// writeDependencyError maps a dependency failure to a response.
func writeDependencyError(w http.ResponseWriter, op string, err error) {
	writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
}
