// Package web serves the live view of an organiser over HTTP: the current
// tree, the run history, a manual trigger and a server-sent event stream.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driving"
	"github.com/custodia-labs/sefs/internal/logger"
)

const (
	// DefaultHeartbeat is the interval between SSE keep-alive comments.
	DefaultHeartbeat = 25 * time.Second

	// DefaultRunsLimit is the number of runs returned when no limit is given.
	DefaultRunsLimit = 20

	shutdownTimeout = 5 * time.Second
	reorganiseLimit = 5 * time.Minute
)

// EventSnapshot tags the first message of every stream.
const EventSnapshot domain.EventKind = "snapshot"

// Server exposes an organiser over HTTP.
type Server struct {
	organiser driving.Organiser
	heartbeat time.Duration
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithHeartbeat overrides the SSE keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// New creates a server for organiser.
func New(organiser driving.Organiser, opts ...Option) *Server {
	s := &Server{
		organiser: organiser,
		heartbeat: DefaultHeartbeat,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/runs", s.handleRuns)
		r.Post("/reorganise", s.handleReorganise)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web: listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.organiser.Tree())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.organiser.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]RunView, 0, len(runs))
	for _, run := range runs {
		out = append(out, NewRunView(run))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReorganise(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reorganiseLimit)
	defer cancel()

	run, err := s.organiser.Reorganise(ctx)
	if err != nil {
		logger.Warn("web: reorganise: %v", err)
		resp := map[string]any{"error": err.Error()}
		if run != nil {
			resp["run"] = NewRunView(*run)
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, NewRunView(*run))
}

// handleStream sends a snapshot, then one message per notification and a
// heartbeat comment whenever the stream has been idle.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	notes, unsubscribe := s.organiser.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snapshot := domain.Notification{
		Event:     EventSnapshot,
		Timestamp: time.Now(),
		Tree:      s.organiser.Tree(),
	}
	if err := writeEvent(w, snapshot); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			if err := writeEvent(w, n); err != nil {
				logger.Debug("web: stream closed: %v", err)
				return
			}
			flusher.Flush()
			ticker.Reset(s.heartbeat)
		case <-ticker.C:
			if _, err := w.Write([]byte(": heartbeat\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
