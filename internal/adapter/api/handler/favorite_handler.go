package handler

import (
	"github.com/labstack/echo/v4"

	"sellnext/internal/usecase"
	"sellnext/pkg/response"
)

type FavoriteHandler struct {
	favoriteUseCase *usecase.FavoriteUseCase
}

func NewFavoriteHandler(favoriteUseCase *usecase.FavoriteUseCase) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteUseCase: favoriteUseCase,
	}
}

func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
	result, err := h.favoriteUseCase.AddFavorite(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, "Product added to favorites", result)
}

func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	result, err := h.favoriteUseCase.RemoveFavorite(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.SuccessWithMessage(c, "Product removed from favorites", result)
}

func (h *FavoriteHandler) ListFavorites(c echo.Context) error {
	products, err := h.favoriteUseCase.ListFavorites(c.Request().Context(), currentUserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"products": products})
}
