package router

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/adapter/api/handler"
	"sellnext/internal/adapter/api/middleware"
	"sellnext/internal/infrastructure/ratelimit"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	auth := e.Group("/api/auth")

	// Public routes
	credentials := middleware.RateLimit(limiter, ratelimit.ActionAuth)
	auth.POST("/signup", authHandler.Signup, credentials)
	auth.POST("/login", authHandler.Login, credentials)
	auth.GET("/user/:userId", authHandler.GetPublicProfile)

	// Protected routes
	auth.GET("/me", authHandler.Me, authMiddleware.Authenticate)
	auth.PUT("/profile", authHandler.UpdateProfile, authMiddleware.Authenticate)
}
