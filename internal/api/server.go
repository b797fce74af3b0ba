// Package api exposes the host-platform surface over HTTP: directory and
// event management plus the notification delivery log. Every mutation that
// affects calendar state publishes a lifecycle trigger to the bus; the
// notification engine consumes them asynchronously.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutorrio/icalsender/internal/build"
	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/eventbus"
	"github.com/tutorrio/icalsender/internal/storage"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	dir        directory.Store
	deliveries storage.DeliveryLogStore
	bus        eventbus.Bus
	port       int
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a new API Server.
func New(dir directory.Store, deliveries storage.DeliveryLogStore, bus eventbus.Bus,
	port int, logger *slog.Logger) *Server {
	s := &Server{
		dir:        dir,
		deliveries: deliveries,
		bus:        bus,
		port:       port,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": build.String(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleCreateUser)
		r.Get("/users/{id}", s.handleGetUser)
		r.Post("/courses", s.handleCreateCourse)
		r.Get("/courses/{id}", s.handleGetCourse)
		r.Post("/cohorts", s.handleCreateCohort)
		r.Post("/groups", s.handleCreateGroup)

		r.Post("/courses/{id}/enrolments", s.handleEnrol)
		r.Delete("/courses/{id}/enrolments/{userID}", s.handleUnenrol)
		r.Post("/courses/{id}/cohort-sync", s.handleCohortSync)
		r.Post("/groups/{id}/members", s.handleAddGroupMember)
		r.Delete("/groups/{id}/members/{userID}", s.handleRemoveGroupMember)
		r.Post("/cohorts/{id}/members", s.handleAddCohortMember)

		r.Post("/events", s.handleCreateEvent)
		r.Get("/events/{id}", s.handleGetEvent)
		r.Put("/events/{id}", s.handleUpdateEvent)
		r.Delete("/events/{id}", s.handleDeleteEvent)

		r.Get("/deliveries", s.handleListDeliveries)
	})
	return r
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// requestLogger is a chi middleware that logs each incoming request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
