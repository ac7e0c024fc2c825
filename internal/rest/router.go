// Package rest exposes the scheduling service as JSON over HTTP. Every route
// calls the same handler methods as the gRPC service.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"clinic-scheduling-api/internal/handler"
	"clinic-scheduling-api/internal/metrics"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/rpc"
)

type Config struct {
	Handler     *handler.Handler
	Authorizer  *middleware.Authorizer
	Limiter     *middleware.RateLimiter
	Metrics     *metrics.Recorder
	Log         zerolog.Logger
	CORSOrigins []string
	// GRPCWeb, when set, is mounted under the service path.
	GRPCWeb http.Handler
	// Ping backs /healthz.
	Ping func(ctx context.Context) error
}

type api struct {
	h     *handler.Handler
	authz *middleware.Authorizer
}

func NewRouter(cfg Config) http.Handler {
	a := &api{h: cfg.Handler, authz: cfg.Authorizer}
	guard := cfg.Authorizer.HTTP

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.HTTPLogger(cfg.Log, cfg.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Grpc-Web", "X-User-Agent"},
		ExposedHeaders: []string{"Grpc-Status", "Grpc-Message"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthz(cfg.Ping))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.Limiter != nil {
				r.Use(middleware.RateLimitHTTP(cfg.Limiter))
			}
			r.Post("/login", a.login)
			r.Post("/register", a.register)
		})
		r.Get("/whoami", a.whoami)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.With(guard(rpc.MethodBookAppointment)).Post("/book", a.book)
		r.With(guard(rpc.MethodAvailableSlots)).Get("/available-slots", a.availableSlots)
		r.With(guard(rpc.MethodGetUpcoming)).Get("/upcoming", a.upcoming)
		r.With(guard(rpc.MethodGetAppointment)).Get("/{id}", a.get)
		r.With(guard(rpc.MethodCancelAppointment)).Post("/{id}/cancel", a.cancel)
		r.With(guard(rpc.MethodUpdateStatus)).Put("/{id}/status", a.updateStatus)
		r.With(guard(rpc.MethodRescheduleAppointment)).Put("/{id}/reschedule", a.reschedule)
	})
	r.With(guard(rpc.MethodGetSchedule)).Get("/schedule", a.schedule)
	r.With(guard(rpc.MethodGetHistory)).Get("/history", a.history)

	if cfg.GRPCWeb != nil {
		r.Handle("/"+rpc.ServiceName+"/*", cfg.GRPCWeb)
	}
	return r
}

func healthz(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
