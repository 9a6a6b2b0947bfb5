// Package api provides the HTTP server and handlers for the request viewer.
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/internal/metrics"
	"github.com/simviewer/simviewer/internal/simfiles"
)

// Config holds the server settings that affect request handling.
type Config struct {
	// WorkDir is served as static content and stands in for the working
	// directory when resolving scan roots and file paths.
	WorkDir       string
	WatchInterval time.Duration
	Version       string
}

// Server is the request viewer HTTP server.
type Server struct {
	cfg     Config
	logger  *zap.Logger
	scanner *simfiles.Scanner
	static  http.Handler
}

// NewServer creates a new server.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		scanner: simfiles.NewScanner(logger),
		static:  http.FileServer(http.Dir(cfg.WorkDir)),
	}
}

// Handler returns the HTTP handler with CORS, logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// CORS preflight for any path
	mux.HandleFunc("OPTIONS /", s.handleOptions)

	mux.HandleFunc("GET /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/file", s.handleFile)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Everything else is a static file from the work directory.
	mux.Handle("GET /", s.static)
	mux.HandleFunc("/", s.handleUnsupported)

	return metrics.Middleware(logging.Middleware(s.logger)(corsMiddleware(mux)))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUnsupported(w http.ResponseWriter, r *http.Request) {
	s.sendError(w, r, http.StatusNotImplemented, "Unsupported method ("+r.Method+")")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, r, http.StatusOK, healthResponse(s.cfg.Version), false)
}
