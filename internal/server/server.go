// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonews/internal/app"
	"github.com/hyperifyio/gonews/internal/metrics"
	"github.com/hyperifyio/gonews/internal/source"
)

// MaxLimit caps the limit query parameter.
const MaxLimit = 100

// Searcher is the part of app.App the handlers use.
type Searcher interface {
	Search(ctx context.Context, req app.Request) (*app.Response, error)
	Sources() []source.Descriptor
}

// Server serves the JSON API.
type Server struct {
	app Searcher
	srv *http.Server
}

// New returns a Server for a listening on addr.
func New(a Searcher, addr string) *Server {
	s := &Server{app: a}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped with panic recovery and access
// logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	return accessLog(recoverer(mux))
}

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.srv.Addr).Msg("listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	resp, err := s.app.Search(r.Context(), req)
	switch {
	case errors.Is(err, app.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	case err != nil:
		log.Error().Err(err).Str("query", req.Query).Msg("search failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	if resp.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("X-Request-Id", resp.RequestID)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(resp.TTL.Seconds())))
	writeJSON(w, http.StatusOK, resp)
}

// parseSearch maps query parameters onto an app.Request. An empty q is left
// to the app so the error text is the same for every surface.
func parseSearch(r *http.Request) (app.Request, error) {
	q := r.URL.Query()
	req := app.Request{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Region:   q.Get("region"),
	}
	if strings.TrimSpace(req.Query) == "" {
		return req, app.ErrEmptyQuery
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, fmt.Errorf("invalid limit %q", v)
		}
		req.Limit = min(n, MaxLimit)
	}
	if v := strings.TrimSpace(q.Get("ttl")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, fmt.Errorf("invalid ttl %q", v)
		}
		req.TTL = time.Duration(n) * time.Second
	}
	for _, name := range []string{"summarize", "clean"} {
		if b, ok := app.ParseBool(q.Get(name)); ok && b {
			req.Summarize = true
		}
	}
	return req, nil
}

type sourceView struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Region   string `json:"region"`
	Kind     string `json:"kind"`
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	srcs := s.app.Sources()
	out := make([]sourceView, 0, len(srcs))
	for _, d := range srcs {
		out = append(out, sourceView{Name: d.Name, Category: d.Category, Region: d.Region, Kind: d.KindOrDefault()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(out), "sources": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": app.BuildVersion})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

// recoverer turns a handler panic into a 500 JSON error.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		id := w.Header().Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		log.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
