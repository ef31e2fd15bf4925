package server

import (
	"net/http"
	"strconv"

	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

type scanRequest struct {
	Path string `json:"path"`
}

type scanResponse struct {
	Indexed int `json:"indexed"`
}

type reconcileResponse struct {
	Indexed int `json:"indexed"`
	Deleted int `json:"deleted"`
}

type queryRequest struct {
	Q     string `json:"q"`
	Limit *int   `json:"limit"`
}

type queryResponse struct {
	Hits []queryHit `json:"hits"`
}

type queryHit struct {
	Score float64 `json:"score"`
	Path  string  `json:"path"`
}

type queryAdvancedRequest struct {
	Q       string `json:"q"`
	Kind    string `json:"kind"`
	Limit   *int   `json:"limit"`
	Snippet bool   `json:"snippet"`
}

type watchResponse struct {
	Status string `json:"status"`
}

type bundleRequest struct {
	Q        string `json:"q"`
	Limit    int    `json:"limit"`
	CapBytes *int   `json:"cap_bytes"`
	Kind     string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	root := req.Path
	if root == "" {
		root = s.root
	}

	result, err := s.scanner.Scan(root, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scanResponse{Indexed: result.Indexed})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	root := req.Path
	if root == "" {
		root = s.root
	}

	result, err := s.scanner.Reconcile(root, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reconcileResponse{Indexed: result.Indexed, Deleted: result.Deleted})
}

func (s *Server) handleQueryGet(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	req := queryRequest{Q: params.Get("q")}
	// An absent limit param and an explicit limit=0 are different
	// requests: the latter must reach the store and return no hits.
	if params.Has("limit") {
		if n, err := strconv.Atoi(params.Get("limit")); err == nil {
			req.Limit = &n
		}
	}
	s.query(w, req)
}

func (s *Server) handleQueryPost(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.query(w, req)
}

func (s *Server) query(w http.ResponseWriter, req queryRequest) {
	hits, err := s.queries.Query(req.Q, usecase.ResolveLimit(req.Limit))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := queryResponse{Hits: make([]queryHit, len(hits))}
	for i, h := range hits {
		resp.Hits[i] = queryHit{Score: h.Score, Path: h.Path}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueryAdvanced(w http.ResponseWriter, r *http.Request) {
	var req queryAdvancedRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	hits, err := s.queries.QueryAdvanced(req.Q, req.Kind, usecase.ResolveLimit(req.Limit), req.Snippet)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleIndexHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Health()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleWatchStart(w http.ResponseWriter, r *http.Request) {
	status, err := s.monitor.Start()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, watchResponse{Status: status})
}

func (s *Server) handleWatchStop(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, watchResponse{Status: s.monitor.Stop()})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	capBytes := usecase.DefaultBundleCap
	if req.CapBytes != nil {
		capBytes = *req.CapBytes
	}

	bundle, err := s.bundler.Bundle(req.Q, req.Limit, capBytes, req.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}
