// Package api serves the habit service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/service"
)

// Server is the habitual HTTP API server.
type Server struct {
	svc     *service.HabitService
	metrics *Metrics
}

func NewServer(svc *service.HabitService) *Server {
	return &Server{svc: svc, metrics: NewMetrics()}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.metrics.Middleware)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": constants.Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/agenda", s.handleAgenda)
		r.Get("/agenda/range", s.handleAgendaRange)
		r.Get("/reminder", s.handleReminder)

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.handleListHabits)
			r.Post("/", s.handleCreateHabit)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetHabit)
				r.Patch("/", s.handleUpdateHabit)
				r.Delete("/", s.handleDeleteHabit)
				r.Post("/toggle", s.handleToggle)
				r.Get("/progress", s.handleProgress)
				r.Get("/stats", s.handleStats)
			})
		})
	})

	r.Handle("/metrics", s.metrics.Handler())
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    kind,
		},
	})
}

// writeServiceError maps domain errors onto status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case apperrors.Is(err, apperrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case apperrors.Is(err, apperrors.ErrInconsistentState):
		writeError(w, http.StatusConflict, "inconsistent_state", err.Error())
	default:
		logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
