package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/couchcryptid/snow-drift-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes bounds the body of an analysis request.
const maxRequestBytes = 64 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportBuilder analyses an hourly series payload into a drift report.
type ReportBuilder interface {
	Build(ctx context.Context, payload []byte) (domain.DriftReport, error)
}

// Server exposes health, readiness, metrics, and on-demand analysis endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /v1/snow-drift routes.
func NewServer(addr string, ready ReadinessChecker, reports ReportBuilder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/snow-drift", s.handleSnowDrift(reports))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSnowDrift(reports ReportBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
			return
		}

		report, err := reports.Build(r.Context(), body)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("snow drift analysis failed", "error", err)
			}
			writeError(w, status, err.Error())
			return
		}

		encoding := domain.EncodingJSON
		if strings.Contains(r.Header.Get("Accept"), domain.ContentTypeMsgPack) {
			encoding = domain.EncodingMsgPack
		}
		data, contentType, err := domain.EncodeReport(report, encoding)
		if err != nil {
			s.logger.Error("encode report failed", "error", err, "id", report.ID)
			writeError(w, http.StatusInternalServerError, "encode report")
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck // client may have gone away
	}
}

// statusFor maps a transform error onto an HTTP status.
func statusFor(err error) int {
	switch pipeline.ErrorKind(err) {
	case pipeline.KindParse:
		return http.StatusBadRequest
	case pipeline.KindValidation, pipeline.KindDataQuality, pipeline.KindDomain:
		return http.StatusUnprocessableEntity
	default:
		if errors.Is(err, context.Canceled) {
			return 499
		}
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
