// Package server exposes the fix pipeline over HTTP: consolidated and
// single-error fix endpoints, health, and cache administration.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sajidashaik44/AI-error-fixer/internal/fixer"
)

// DefaultMaxBatchSize bounds how many error reports one request may carry.
const DefaultMaxBatchSize = 50

// Prober reports whether the inference endpoint is reachable. Satisfied by
// *inference.Client; nil means no inference backend is configured.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Server is the HTTP boundary around the orchestrator.
type Server struct {
	orchestrator *fixer.Orchestrator
	prober       Prober
	logger       *zap.Logger
	maxBatch     int
	httpServer   *http.Server
}

// New builds a server. prober may be nil; maxBatch defaults to
// DefaultMaxBatchSize when non-positive.
func New(addr string, orchestrator *fixer.Orchestrator, prober Prober, maxBatch int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}

	s := &Server{
		orchestrator: orchestrator,
		prober:       prober,
		logger:       logger,
		maxBatch:     maxBatch,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /fix-errors-consolidated", s.handleFixBatch)
	mux.HandleFunc("POST /fix-error", s.handleFixSingle)
	mux.HandleFunc("GET /cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /cache/clear", s.handleCacheClear)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the server until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("serving", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Consolidated Error Fixer API",
		"features": []string{
			"Processes all errors at once",
			"Clean code output without line numbers",
			"Primary and alternative solutions",
		},
		"status": "ready",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reachable := false
	if s.prober != nil {
		reachable = s.prober.Probe(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"inference_available": reachable,
		"cache_stats":         s.orchestrator.CacheStats(),
	})
}

// handleFixBatch is the main endpoint: all errors in, one consolidated
// fix out. Contract violations (empty or oversized batches) are rejected
// here before the core runs.
func (s *Server) handleFixBatch(w http.ResponseWriter, r *http.Request) {
	var batch fixer.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(batch.Errors) == 0 {
		writeError(w, http.StatusBadRequest, "No errors provided")
		return
	}
	if len(batch.Errors) > s.maxBatch {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many errors. Maximum %d per request.", s.maxBatch))
		return
	}

	s.logger.Info("processing consolidated batch",
		zap.Int("errors", len(batch.Errors)),
		zap.String("file", batch.FilePath))

	resp := s.orchestrator.FixBatch(r.Context(), batch)
	writeJSON(w, http.StatusOK, resp)
}

// singleErrorRequest is the shape of the single-error convenience
// endpoint, which wraps its payload into a one-element batch.
type singleErrorRequest struct {
	Message  string `json:"error_message"`
	Snippet  string `json:"code_snippet"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line_number"`
}

func (s *Server) handleFixSingle(w http.ResponseWriter, r *http.Request) {
	var req singleErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	batch := fixer.Batch{
		Errors: []fixer.ErrorReport{{
			Message: req.Message,
			Snippet: req.Snippet,
			Line:    req.Line,
			ID:      "single_" + uuid.NewString(),
		}},
		FilePath: req.FilePath,
	}

	resp := s.orchestrator.FixBatch(r.Context(), batch)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cache_stats": s.orchestrator.CacheStats(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.orchestrator.ResetCache()
	s.logger.Info("cache cleared")
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Cache cleared successfully",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
