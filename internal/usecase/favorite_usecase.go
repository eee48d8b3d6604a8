package usecase

import (
	"context"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/logger"
)

type FavoriteUseCase struct {
	favoriteRepo repository.FavoriteRepository
	products     *ProductUseCase
}

func NewFavoriteUseCase(favoriteRepo repository.FavoriteRepository, products *ProductUseCase) *FavoriteUseCase {
	return &FavoriteUseCase{
		favoriteRepo: favoriteRepo,
		products:     products,
	}
}

type FavoriteResult struct {
	ProductID      string `json:"product_id"`
	IsFavorited    bool   `json:"is_favorited"`
	FavoritesCount int    `json:"favorites_count"`
}

func (uc *FavoriteUseCase) AddFavorite(ctx context.Context, userID, productID string) (*FavoriteResult, error) {
	product, err := uc.favoriteRepo.Add(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	logger.Debug("User %s favorited product %s", userID, productID)
	return &FavoriteResult{
		ProductID:      product.ID,
		IsFavorited:    true,
		FavoritesCount: len(product.Favorites),
	}, nil
}

func (uc *FavoriteUseCase) RemoveFavorite(ctx context.Context, userID, productID string) (*FavoriteResult, error) {
	product, err := uc.favoriteRepo.Remove(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	return &FavoriteResult{
		ProductID:      product.ID,
		IsFavorited:    false,
		FavoritesCount: len(product.Favorites),
	}, nil
}

// ListFavorites returns the caller's favorited products that are still active.
func (uc *FavoriteUseCase) ListFavorites(ctx context.Context, userID string) ([]*entity.ProductView, error) {
	products, err := uc.favoriteRepo.ListProducts(ctx, userID, entity.ProductStatusActive)
	if err != nil {
		return nil, err
	}
	return uc.products.views(ctx, products), nil
}
