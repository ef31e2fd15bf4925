// Package server exposes the index and bundler over JSON-over-HTTP.
//
// Endpoints:
//   - GET  /health               - liveness check
//   - POST /index/scan           - bulk-load the index from a tree
//   - POST /index/reconcile      - scan plus deletion of vanished paths
//   - GET/POST /index/query      - free-text search
//   - POST /index/query/advanced - search with kind filter and snippets
//   - GET  /index/health         - document and term counts
//   - POST /index/watch/start    - start the change monitor
//   - POST /index/watch/stop     - stop the change monitor
//   - POST /context/bundle       - assemble a byte-capped context bundle
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/EricA1019/Godot-MCP/internal/domain"
	"github.com/EricA1019/Godot-MCP/internal/port"
	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

// maxRequestBody bounds request bodies.
const maxRequestBody = 1 << 20

// Server is the control surface: argument validation, default filling
// and dispatch. Business logic lives in the use cases.
type Server struct {
	store   port.Store
	monitor port.Monitor
	scanner *usecase.ScanUseCase
	queries *usecase.QueryUseCase
	bundler *usecase.BundleUseCase
	root    string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New wires the control surface. root is the default scan root.
func New(
	store port.Store,
	monitor port.Monitor,
	scanner *usecase.ScanUseCase,
	queries *usecase.QueryUseCase,
	bundler *usecase.BundleUseCase,
	root string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:   store,
		monitor: monitor,
		scanner: scanner,
		queries: queries,
		bundler: bundler,
		root:    root,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /index/scan", s.handleScan)
	s.mux.HandleFunc("POST /index/reconcile", s.handleReconcile)
	s.mux.HandleFunc("GET /index/query", s.handleQueryGet)
	s.mux.HandleFunc("POST /index/query", s.handleQueryPost)
	s.mux.HandleFunc("POST /index/query/advanced", s.handleQueryAdvanced)
	s.mux.HandleFunc("GET /index/health", s.handleIndexHealth)
	s.mux.HandleFunc("POST /index/watch/start", s.handleWatchStart)
	s.mux.HandleFunc("POST /index/watch/stop", s.handleWatchStop)
	s.mux.HandleFunc("POST /context/bundle", s.handleBundle)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
}

// ListenAndServe blocks serving on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// writeJSON encodes v with a status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP status codes: invalid
// queries are the client's fault, an unavailable index is ours.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQueryInvalid):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIndexUnavailable):
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// at its zero value so optional-body endpoints work with an empty POST.
func (s *Server) decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
