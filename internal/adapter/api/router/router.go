package router

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/adapter/api/handler"
	"sellnext/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	SetupAuthRouter(e, h.Auth, authMiddleware, limiter)
	SetupProductRouter(e, h.Product, h.Favorite, authMiddleware)
	SetupMessageRouter(e, h.Message, authMiddleware)
	SetupUploadRouter(e, h.Upload, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupHealthRouter(e, h.Health)
}
