package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/latchauth/latch/internal/infrastructure/http/handlers"
	"github.com/latchauth/latch/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	UsersHandler    *handlers.UsersHandler
	HealthHandler   *handlers.HealthHandler
	Tenant          *middleware.TenantResolver
	RequireJWT      func(http.Handler) http.Handler
	Log             zerolog.Logger
	Secure          func(http.Handler) http.Handler
	IPRateLimit     func(http.Handler) http.Handler
	TenantRateLimit func(http.Handler) http.Handler
	Metrics         bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	r.Use(chimid.AllowContentType("application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		// Token-in-body routes; tenant comes from the token record.
		r.Post("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/logout", cfg.AuthHandler.Logout)
		// Tenant-attributed routes (Host header or X-Latch-Domain-Key).
		r.Group(func(r chi.Router) {
			r.Use(cfg.Tenant.Handler)
			if cfg.TenantRateLimit != nil {
				r.Use(cfg.TenantRateLimit)
			}
			r.Post("/magic-link/send", cfg.AuthHandler.SendMagicLink)
			r.Post("/magic-link/verify", cfg.AuthHandler.VerifyMagicLink)
			r.Get("/oauth/{provider}", cfg.AuthHandler.OAuthBegin)
			r.Post("/oauth/exchange", cfg.AuthHandler.OAuthExchange)
		})
	})

	if cfg.UsersHandler != nil && cfg.RequireJWT != nil {
		r.Route("/users", func(r chi.Router) {
			r.Use(cfg.RequireJWT)
			r.Get("/me", cfg.UsersHandler.Me)
		})
	}

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
