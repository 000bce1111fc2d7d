// Package server provides the browser front end for counsel.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/counsel/internal/config"
	"github.com/hyperjump/counsel/internal/session"
	"github.com/hyperjump/counsel/pkg/utils"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

// Server is the HTTP server for the browser UI.
type Server struct {
	api      session.API
	sessions *Sessions
	config   *config.WebConfig
	logger   *zap.Logger
	markdown goldmark.Markdown
	page     *template.Template
	handler  http.Handler
	server   *http.Server
	inflight sync.WaitGroup
}

// NewServer creates a server that answers questions through api.
func NewServer(api session.API, cfg *config.WebConfig, logger *zap.Logger) *Server {
	s := &Server{
		api:      api,
		sessions: NewSessions(cfg.SessionTTL),
		config:   cfg,
		logger:   utils.OrNop(logger),
		markdown: newMarkdown(),
		page:     template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleIndex)
	r.Post("/ask", s.handleAsk)
	r.Post("/view", s.handleView)
	r.Post("/close", s.handleClose)
	r.Get("/api/session", s.handleSessionState)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server, then waits for outstanding
// questions and document fetches until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	settled := make(chan struct{})
	go func() {
		s.Wait()
		close(settled)
	}()
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every question and document fetch started so far has settled.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) track(done <-chan error) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		<-done
	}()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
