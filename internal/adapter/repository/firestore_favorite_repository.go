package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

// firestoreFavoriteRepository keeps favorites as an array of user ids on the
// product document.
type firestoreFavoriteRepository struct {
	client *firestore.Client
}

func NewFirestoreFavoriteRepository(client *firestore.Client) repository.FavoriteRepository {
	return &firestoreFavoriteRepository{
		client: client,
	}
}

func (r *firestoreFavoriteRepository) Add(ctx context.Context, userID, productID string) (*entity.Product, error) {
	return r.toggle(ctx, userID, productID, true)
}

func (r *firestoreFavoriteRepository) Remove(ctx context.Context, userID, productID string) (*entity.Product, error) {
	return r.toggle(ctx, userID, productID, false)
}

func (r *firestoreFavoriteRepository) toggle(ctx context.Context, userID, productID string, add bool) (*entity.Product, error) {
	ref := r.client.Collection(productsCollection).Doc(productID)

	var updated *entity.Product
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		product, err := productFromSnapshot(doc)
		if err != nil {
			return err
		}

		favorited := product.IsFavoritedBy(userID)
		var change interface{}
		switch {
		case add && favorited:
			return errors.BadRequest("Product already in favorites", nil)
		case !add && !favorited:
			return errors.BadRequest("Product not in favorites", nil)
		case add:
			product.Favorites = append(product.Favorites, userID)
			change = firestore.ArrayUnion(userID)
		default:
			product.Favorites = removeString(product.Favorites, userID)
			change = firestore.ArrayRemove(userID)
		}

		product.UpdatedAt = time.Now()
		updated = product
		return tx.Update(ref, []firestore.Update{
			{Path: "favorites", Value: change},
			{Path: "updatedAt", Value: product.UpdatedAt},
		})
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		if isNotFound(err) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to update favorites", err)
	}
	return updated, nil
}

func (r *firestoreFavoriteRepository) ListProducts(ctx context.Context, userID, status string) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).Where("favorites", "array-contains", userID)
	if status != "" {
		query = query.Where("status", "==", status)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list favorites", err)
	}

	products := make([]*entity.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := productFromSnapshot(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	sortProducts(products, entity.SortNewest)
	return products, nil
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
