package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/auth"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/handlers"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	adminAuthHandler *handlers.AdminAuthHandler,
	tokenManager *auth.TokenManager,
) {
	// Coarse per-IP shed in front of the application-level rate limiter
	edgeLimit := middleware.RateLimitByIP(30, time.Minute)

	// Public routes - no authentication required
	router.With(edgeLimit).Post("/admin/request-code", adminAuthHandler.RequestCode)
	router.With(edgeLimit).Post("/admin/verify-code", adminAuthHandler.VerifyCode)

	// Protected routes - session required
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(tokenManager))
		r.Get("/admin/me", adminAuthHandler.Me)
		r.Post("/admin/logout", adminAuthHandler.Logout)
	})
}
