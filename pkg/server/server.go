// Package server exposes the tutoring pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/observability"
	"github.com/Javi111003/OlivIA-RAG/pkg/pipeline"
)

// Server serves the conversation API.
type Server struct {
	cfg     *config.ServerConfig
	pipe    *pipeline.Pipeline
	metrics *observability.Metrics
	http    *http.Server
}

// New creates the server over an assembled pipeline.
func New(cfg *config.ServerConfig, pipe *pipeline.Pipeline, metrics *observability.Metrics) *Server {
	s := &Server{cfg: cfg, pipe: pipe, metrics: metrics}
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/conversations", s.handleConversation)
	r.Get("/v1/graph", s.handleGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// Start serves until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type conversationRequest struct {
	Query string `json:"query"`
}

type conversationResponse struct {
	Answer   string `json:"answer"`
	StateID  string `json:"state_id"`
	Steps    int    `json:"steps"`
	Degraded bool   `json:"degraded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}

	result, err := s.pipe.Run(r.Context(), req.Query)
	if err != nil {
		slog.Error("Conversation run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "conversation failed"})
		return
	}

	writeJSON(w, http.StatusOK, conversationResponse{
		Answer:   result.Answer,
		StateID:  result.State.ID,
		Steps:    result.Steps,
		Degraded: result.Degraded,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	rendered, err := s.pipe.Mermaid()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "graph rendering failed"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rendered))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
