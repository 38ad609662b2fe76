// Package server exposes margin blanking over HTTP. Each client opens its
// own session on a source PDF, adjusts margins while fetching previews,
// then commits.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lvillar/marginblank/session"
)

// Server holds independent sessions keyed by UUID.
type Server struct {
	logger *slog.Logger
	opts   []session.Option
	router *chi.Mux

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session.Session
}

// New returns a server whose sessions are built with opts.
func New(logger *slog.Logger, opts ...session.Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:   logger,
		opts:     append([]session.Option{session.WithLogger(logger)}, opts...),
		sessions: make(map[uuid.UUID]*session.Session),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	s.router = r
	return s
}

// RegisterHTTP mounts the API on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/sessions", s.handleCreate)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.withSession(s.handleState))
		r.Delete("/", s.handleDelete)

		r.Post("/pages/next", s.withSession(s.handleNext))
		r.Post("/pages/prev", s.withSession(s.handlePrev))
		r.Put("/pages/{n}", s.withSession(s.handleSeek))

		r.Get("/margins", s.withSession(s.handleGetMargins))
		r.Put("/margins", s.withSession(s.handleSetMargins))
		r.Put("/margins/{edge}", s.withSession(s.handleSetEdge))
		r.Put("/margins/{edge}/drag", s.withSession(s.handleDragEdge))
		r.Delete("/margins", s.withSession(s.handleResetMargins))

		r.Get("/overlay", s.withSession(s.handleOverlay))
		r.Get("/preview.png", s.withSession(s.handlePreview))
		r.Post("/commit", s.withSession(s.handleCommit))
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and closes every session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("server: stopped")
	return nil
}

// Close ends every open session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

// Len returns the number of open sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) add(sess *session.Session) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id
}

func (s *Server) lookup(r *http.Request) (uuid.UUID, *session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, nil, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	return id, sess, ok
}

func (s *Server) remove(id uuid.UUID) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	return sess, ok
}
