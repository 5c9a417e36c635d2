// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package web serves the uprofile JSON API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/observability"
)

// ResetDelivery hands a password reset token to the holder of identifier,
// typically by email.
type ResetDelivery func(ctx context.Context, identifier, token string) error

// Dependencies are the services behind the API.
type Dependencies struct {
	Accounts *account.Service
	Resets   *account.PasswordResetService
	Profiles *account.ProfileService
}

// Options tune the API.
type Options struct {
	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// Metrics, when set, observes every request.
	Metrics *observability.Metrics
	// ResetDelivery receives issued reset tokens. When nil, reset requests
	// answer 501 and tokens can only be issued out of band.
	ResetDelivery ResetDelivery
}

// Handler holds the API handlers.
type Handler struct {
	accounts      *account.Service
	resets        *account.PasswordResetService
	profiles      *account.ProfileService
	secureCookies bool
	logger        *slog.Logger
	deliver       ResetDelivery
}

// NewRouter builds the API router.
func NewRouter(deps Dependencies, opts Options) (http.Handler, error) {
	switch {
	case deps.Accounts == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("account service is required")
	case deps.Resets == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("password reset service is required")
	case deps.Profiles == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("profile service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		accounts:      deps.Accounts,
		resets:        deps.Resets,
		profiles:      deps.Profiles,
		secureCookies: opts.SecureCookies,
		logger:        logger,
		deliver:       opts.ResetDelivery,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.Metrics != nil {
		r.Use(observe(opts.Metrics))
	}
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/password-policy", h.passwordPolicy)
		r.Post("/accounts", h.register)
		r.Post("/sessions", h.login)
		r.Post("/password-resets", h.requestReset)
		r.Post("/password-resets/confirm", h.confirmReset)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Delete("/sessions/current", h.logout)
			r.Get("/accounts/me", h.me)
			r.Put("/accounts/me/password", h.changePassword)
			r.Patch("/accounts/me/profile", h.updateProfile)
			r.Get("/accounts/{id}", h.viewAccount)
		})
	})
	return r, nil
}

// observe records request counts and latency by route pattern.
func observe(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
