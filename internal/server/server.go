package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/doctoc/internal/config"
	"github.com/ziadkadry99/doctoc/internal/outline"
	"github.com/ziadkadry99/doctoc/internal/site"
	"github.com/ziadkadry99/doctoc/internal/tocsync"
)

// Config holds server configuration.
type Config struct {
	Port     int
	SiteDir  string // directory produced by `doctoc build`
	AllowAll bool   // allow all CORS origins (dev mode)
	TOC      config.TOCConfig
}

// Server serves a built site and synchronizes the TOC panel of every open
// page over a websocket.
type Server struct {
	cfg        Config
	log        *zap.Logger
	router     chi.Router
	httpServer *http.Server

	mu       sync.RWMutex
	outlines map[string][]outline.Record

	sessions atomic.Int64
	clock    tocsync.Clock // nil means wall clock
}

// New creates a server over cfg.SiteDir and loads its outline index.
func New(cfg Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{cfg: cfg, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.router = s.buildRouter()
	return s, nil
}

// Reload re-reads the outline index, e.g. after a rebuild. A site without an
// index serves pages with empty outlines.
func (s *Server) Reload() error {
	path := filepath.Join(s.cfg.SiteDir, site.OutlineFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("no outline index, pages will not be synchronized", zap.String("path", path))
		s.setOutlines(map[string][]outline.Record{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading outline index: %w", err)
	}

	var outlines map[string][]outline.Record
	if err := json.Unmarshal(data, &outlines); err != nil {
		return fmt.Errorf("parsing outline index: %w", err)
	}
	for page, recs := range outlines {
		if _, err := outline.FromRecords(recs); err != nil {
			return fmt.Errorf("outline of %s: %w", page, err)
		}
	}
	s.setOutlines(outlines)
	s.log.Debug("outline index loaded", zap.Int("pages", len(outlines)))
	return nil
}

func (s *Server) setOutlines(o map[string][]outline.Record) {
	s.mu.Lock()
	s.outlines = o
	s.mu.Unlock()
}

// tree builds a fresh TOC tree for page; every session gets its own so
// expand state is never shared.
func (s *Server) tree(page string) (*outline.Tree, bool) {
	s.mu.RLock()
	recs, ok := s.outlines[page]
	s.mu.RUnlock()
	if !ok {
		return &outline.Tree{}, false
	}
	t, err := outline.FromRecords(recs)
	if err != nil {
		return &outline.Tree{}, false
	}
	return t, true
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Get(site.SocketPath, s.handleSync)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/api/outline/*", s.handleOutline)
	})

	r.Handle("/*", http.FileServer(http.Dir(s.cfg.SiteDir)))
	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Sessions returns the number of open sync sessions.
func (s *Server) Sessions() int64 { return s.sessions.Load() }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Load(),
	})
}

type outlineResponse struct {
	Page    string           `json:"page"`
	Entries []outline.Record `json:"entries"`
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "*")
	s.mu.RLock()
	recs, ok := s.outlines[page]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown page: " + page})
		return
	}
	writeJSON(w, http.StatusOK, outlineResponse{Page: page, Entries: recs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("doctoc server listening", zap.String("addr", addr), zap.String("site", s.cfg.SiteDir))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
