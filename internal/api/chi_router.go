// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mix/internal/authz"
	"github.com/tomtom215/mix/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler         *Handler
	chiMiddleware   *ChiMiddleware
	authzMiddleware *authz.Middleware
	static          http.Handler
}

// NewRouter builds the router. It also installs the realtime frame handler
// on the handler's hub.
func NewRouter(handler *Handler, enforcer *authz.Enforcer) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	staticDir := ""
	production := false
	if handler.config != nil {
		mwConfig = ChiMiddlewareConfigFromSecurity(handler.config.Security)
		staticDir = handler.config.Server.StaticDir
		production = handler.config.IsProduction()
	}

	handler.RegisterRealtime()
	return &Router{
		handler:         handler,
		chiMiddleware:   NewChiMiddleware(mwConfig),
		authzMiddleware: authz.NewMiddleware(enforcer, writeForbidden, writeAuthzFailure),
		static:          newStaticHandler(staticDir, production),
	}
}

// SetupChi returns the complete HTTP handler.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.With(h.sessions.Authenticate).Get("/ws", h.WebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.NotFound(writeNotFound)
		r.MethodNotAllowed(writeMethodNotAllowed)

		r.Get("/health", h.Health)
		r.Get("/health/ready", h.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(h.sessions.Authenticate)

			r.Route("/auth", func(r chi.Router) {
				r.Get("/config", h.AuthConfig)
				r.Post("/logout", h.Logout)
				r.With(h.RequireUser).Get("/user", h.AuthUser)

				r.Group(func(r chi.Router) {
					r.Use(router.chiMiddleware.RateLimitAuth())
					r.Post("/phone", h.PhoneLogin)
					r.Post("/google", h.GoogleLogin)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(h.RequireUser)

				r.Put("/profile", h.UpdateProfile)
				r.Get("/profiles/{id}", h.GetProfile)

				r.Get("/discover", h.Discover)
				r.Post("/discover/swipe", h.Swipe)

				r.Get("/matches", h.ListMatches)
				r.Delete("/matches/{id}", h.Unmatch)
				r.Get("/matches/{id}/messages", h.ListMessages)
				r.Post("/matches/{id}/messages", h.SendMessage)

				r.Post("/reports", h.CreateReport)
			})

			r.Route("/admin", func(r chi.Router) {
				r.With(router.chiMiddleware.RateLimitAuth()).Post("/login", h.AdminLogin)

				r.Group(func(r chi.Router) {
					r.Use(h.jwt.RequireAdmin(writeUnauthorized))
					r.Use(router.authzMiddleware.AuthorizeRequest)

					r.Get("/stats", h.AdminStats)
					r.Get("/users", h.AdminListUsers)
					r.Get("/users/{id}", h.AdminGetUser)
					r.Patch("/users/{id}", h.AdminUpdateUser)
					r.Delete("/users/{id}", h.AdminDeleteUser)
					r.Get("/matches", h.AdminListMatches)
					r.Get("/reports", h.AdminListReports)
					r.Patch("/reports/{id}", h.AdminUpdateReport)
					r.Get("/audit", h.AdminAuditLog)
				})
			})
		})
	})

	r.Get("/*", router.static.ServeHTTP)
	r.Head("/*", router.static.ServeHTTP)

	return r
}
