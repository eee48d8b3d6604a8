package repository

import (
	"context"

	"sellnext/internal/domain/entity"
)

// FavoriteRepository maintains the set of users favoriting each product.
type FavoriteRepository interface {
	// Add fails with a bad request error when the user already favorited the product.
	Add(ctx context.Context, userID, productID string) (*entity.Product, error)
	// Remove fails with a bad request error when the product is not a favorite.
	Remove(ctx context.Context, userID, productID string) (*entity.Product, error)
	ListProducts(ctx context.Context, userID, status string) ([]*entity.Product, error)
}
