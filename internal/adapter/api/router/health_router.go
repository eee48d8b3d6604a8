package router

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/adapter/api/handler"
)

func SetupHealthRouter(e *echo.Echo, healthHandler *handler.HealthHandler) {
	e.GET("/api/health", healthHandler.CheckHealth)
}
