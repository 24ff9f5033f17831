// Package web provides the chat web server and HTTP handlers.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/reframelab/reframe/internal/chat"
)

//go:embed templates/*.html
var templateFS embed.FS

// Analyzer runs one analysis round trip. Satisfied by *chat.Service.
type Analyzer interface {
	Analyze(ctx context.Context, situation, thought, userID string) (*chat.Result, error)
}

// Server is the chat HTTP server.
type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	analyzer Analyzer
	tmpl     *template.Template
}

// ServerConfig contains configuration for creating a chat server.
type ServerConfig struct {
	Logger   *slog.Logger
	Analyzer Analyzer
}

// NewServer creates a chat server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:      mux,
		logger:   cfg.Logger,
		analyzer: cfg.Analyzer,
		tmpl:     tmpl,
	}

	// Health check route (no middleware, for probes)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)

	return s, nil
}

// ServeHTTP implements http.Handler with the middleware stack
// Recovery → Logging → routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setSecurityHeaders(w)

	var handler http.Handler = s.mux
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler.ServeHTTP(w, r)
}

func (s *Server) setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self'")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// Handler returns the server as an http.Handler for mounting.
func (s *Server) Handler() http.Handler {
	return s
}
