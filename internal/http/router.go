package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/http/handlers"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/middleware"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/provider"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(authHandler *handlers.AuthHandler, sessions middleware.SessionValidator, bearer *provider.BearerVerifier) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/otp/request", authHandler.HandleOTPRequest)
		r.Post("/otp/verify", authHandler.HandleOTPVerify)
	})

	// Protected routes (require a valid self-issued or provider token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(sessions, bearer))
		r.Get("/auth/session", authHandler.HandleSession)
		r.Get("/me", authHandler.HandleSession)
	})

	return r
}
