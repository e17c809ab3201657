// Package api exposes the collector over HTTP for local tooling and
// health checks.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/comsum/collector"
	"github.com/hazyhaar/comsum/summarize"
)

// Runner is the part of the collector the API calls.
type Runner interface {
	Quick(ctx context.Context) (*collector.Result, error)
	Deep(ctx context.Context) (*collector.Result, error)
	Busy() bool
}

// Server wraps a Runner with an HTTP surface.
type Server struct {
	runner Runner
	logger *slog.Logger
	router chi.Router
}

// NewServer builds the HTTP surface over a collector.
func NewServer(runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	s := &Server{runner: runner, logger: logger, router: r}

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Post("/v1/summaries", s.handleSummarize)

	return s
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.runner.Busy()})
}

type summarizeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var (
		res *collector.Result
		err error
	)
	switch req.Mode {
	case "", string(collector.ModeQuick):
		res, err = s.runner.Quick(r.Context())
	case string(collector.ModeDeep):
		res, err = s.runner.Deep(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "mode must be quick or deep")
		return
	}
	if err != nil {
		s.logger.Warn("summarize request failed", "mode", req.Mode, "err", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// statusFor maps collector failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, collector.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, collector.ErrNoComments):
		return http.StatusNotFound
	case errors.Is(err, summarize.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
