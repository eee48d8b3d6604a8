package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"sellnext/internal/adapter/api/handler"
	"sellnext/internal/adapter/api/middleware"
)

func SetupUploadRouter(e *echo.Echo, uploadHandler *handler.UploadHandler, authMiddleware *middleware.AuthMiddleware) {
	uploads := e.Group("/api/uploads", authMiddleware.Authenticate, echomw.BodyLimit("6M"))
	uploads.POST("/images", uploadHandler.UploadImage)
}
