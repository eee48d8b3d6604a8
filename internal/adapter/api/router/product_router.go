package router

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/adapter/api/handler"
	"sellnext/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, productHandler *handler.ProductHandler, favoriteHandler *handler.FavoriteHandler, authMiddleware *middleware.AuthMiddleware) {
	products := e.Group("/api/products")

	// Public routes
	products.GET("", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)
	products.GET("/user/:userId", productHandler.ListSellerProducts)

	// Protected routes
	products.POST("", productHandler.CreateProduct, authMiddleware.Authenticate, middleware.SellerOnly)
	products.PUT("/:id", productHandler.UpdateProduct, authMiddleware.Authenticate)
	products.DELETE("/:id", productHandler.DeleteProduct, authMiddleware.Authenticate)

	products.GET("/favorites/user", favoriteHandler.ListFavorites, authMiddleware.Authenticate)
	products.POST("/:id/favorite", favoriteHandler.AddFavorite, authMiddleware.Authenticate)
	products.DELETE("/:id/favorite", favoriteHandler.RemoveFavorite, authMiddleware.Authenticate)
}
