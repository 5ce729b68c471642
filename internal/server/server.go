// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/waypoint/internal/activity"
	"github.com/matthewbaird/waypoint/internal/auth"
	"github.com/matthewbaird/waypoint/internal/handler"
	"github.com/matthewbaird/waypoint/internal/metrics"
	"github.com/matthewbaird/waypoint/internal/service"
	"github.com/matthewbaird/waypoint/internal/stream"
)

// Config holds server configuration.
type Config struct {
	Port      int
	Service   *service.Service
	Metrics   *metrics.Metrics
	Stream    *stream.Hub
	Activity  activity.Store
	Validator *auth.Validator
	// DevActorHeader, when set, lets requests without a token name their
	// actor in this header.
	DevActorHeader string
}

// Router builds the route table.
func Router(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handler.Recovery)
	r.Use(handler.Logging)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Validator, cfg.DevActorHeader, handler.WriteUnauthorized))

		// --- StatusService ---
		sh := handler.NewStatusHandler(cfg.Service)
		r.Post("/status-updates", sh.SubmitReport)
		r.Get("/status-updates", sh.ListStatusUpdates)
		r.Get("/status-updates/{id}", sh.GetStatusUpdate)
		r.Get("/actors/me/status", sh.ActorStatus)

		// --- FollowUpService ---
		fh := handler.NewFollowUpHandler(cfg.Service)
		r.Post("/follow-ups/respond", fh.Respond)
		r.Get("/follow-ups/history", fh.History)

		if cfg.Activity != nil {
			r.Get("/activity", handler.NewActivityHandler(cfg.Activity).List)
		}

		if cfg.Stream != nil {
			r.Handle("/stream", cfg.Stream)
		}
	})
	return r
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           Router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
