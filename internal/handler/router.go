/*
Package handler provides the HTTP handlers and routing setup for the socialfeed server.

This file defines the main Router, applying middleware like logging, CORS, session
resolution and IP-based rate limiting before delegating requests to the page, API and
WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"socialfeed/internal/pkg/auth/jwt"
	"socialfeed/internal/pkg/limiter"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/resp"
)

const (
	AuthRate    = 0.2
	AuthBurst   = 5
	ResetRate   = 0.02
	ResetBurst  = 2
	SocketRate  = 0.5
	SocketBurst = 10
)

// Router sets up the main HTTP routing table for the application. The returned stop
// function ends the rate limiters' cleanup loops.
func Router(deps *AppDeps) (http.Handler, func()) {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	resetLimiter := limiter.NewIPRateLimiter(rate.Limit(ResetRate), ResetBurst)
	socketLimiter := limiter.NewIPRateLimiter(rate.Limit(SocketRate), SocketBurst)

	stop := func() {
		authLimiter.Stop()
		resetLimiter.Stop()
		socketLimiter.Stop()
	}

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" || origin == deps.Config.PublicURL {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{jwt.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "socialfeed",
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(jwt.SessionMiddleware(deps.Config.JWTSecret, !deps.Config.IsDevelopment()))

		r.Get("/", HandleIndexPage(deps))
		r.Get("/reset", HandleResetPage(deps))

		r.Route("/api", func(api chi.Router) {
			api.Route("/auth", func(auth chi.Router) {
				auth.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
				auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
				auth.Post("/logout", HandleLogout(deps))
				auth.With(resetLimiter.Middleware).Post("/reset", HandleResetRequest(deps))
				auth.With(authLimiter.Middleware).Post("/reset/confirm", HandleResetConfirm(deps))
				auth.With(authLimiter.Middleware).Get("/popup/start", HandlePopupStart(deps))
				auth.Get("/popup/callback", HandlePopupCallback(deps))
			})

			api.Route("/user", func(user chi.Router) {
				user.Get("/profile", HandleGetUserProfile(deps))
				user.Post("/profile", HandleUpdateUserProfile(deps))
			})
		})

		r.Get("/ws/session", HandleSessionSocket(wsUpgrader, socketLimiter, deps))
	})

	return r, stop
}
