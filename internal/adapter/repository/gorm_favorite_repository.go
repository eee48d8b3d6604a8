package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

// gormFavoriteRepository keeps the favorites array on the product row and an
// indexed (user, product) table in step inside one transaction.
type gormFavoriteRepository struct {
	db *gorm.DB
}

func NewGormFavoriteRepository(db *gorm.DB) repository.FavoriteRepository {
	return &gormFavoriteRepository{db: db}
}

func (r *gormFavoriteRepository) Add(ctx context.Context, userID, productID string) (*entity.Product, error) {
	var updated *entity.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := r.loadProduct(tx, productID)
		if err != nil {
			return err
		}

		exists, err := favoriteExists(tx, userID, productID)
		if err != nil {
			return err
		}
		if exists || product.IsFavoritedBy(userID) {
			return errors.BadRequest("Product already in favorites", nil)
		}

		now := time.Now().UTC()
		if err := tx.Create(&favoriteRecord{UserID: userID, ProductID: productID, CreatedAt: now}).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.BadRequest("Product already in favorites", nil)
			}
			return errors.Internal("Failed to add favorite", err)
		}

		product.Favorites = append(product.Favorites, userID)
		product.UpdatedAt = now
		updated = product
		return saveFavorites(tx, product)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *gormFavoriteRepository) Remove(ctx context.Context, userID, productID string) (*entity.Product, error) {
	var updated *entity.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := r.loadProduct(tx, productID)
		if err != nil {
			return err
		}

		result := tx.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&favoriteRecord{})
		if result.Error != nil {
			return errors.Internal("Failed to remove favorite", result.Error)
		}
		if result.RowsAffected == 0 && !product.IsFavoritedBy(userID) {
			return errors.BadRequest("Product not in favorites", nil)
		}

		product.Favorites = removeString(product.Favorites, userID)
		product.UpdatedAt = time.Now().UTC()
		updated = product
		return saveFavorites(tx, product)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *gormFavoriteRepository) ListProducts(ctx context.Context, userID, status string) ([]*entity.Product, error) {
	q := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Joins("JOIN favorites ON favorites.product_id = products.id").
		Where("favorites.user_id = ?", userID)
	if status != "" {
		q = q.Where("products.status = ?", status)
	}

	var records []productRecord
	if err := q.Order("favorites.created_at DESC").Find(&records).Error; err != nil {
		return nil, errors.Internal("Failed to list favorites", err)
	}
	return productEntities(records), nil
}

func (r *gormFavoriteRepository) loadProduct(tx *gorm.DB, productID string) (*entity.Product, error) {
	var rec productRecord
	if err := tx.First(&rec, "id = ?", productID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}
	return rec.toEntity(), nil
}

func favoriteExists(tx *gorm.DB, userID, productID string) (bool, error) {
	var count int64
	err := tx.Model(&favoriteRecord{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, errors.Internal("Failed to check favorite", err)
	}
	return count > 0, nil
}

func saveFavorites(tx *gorm.DB, product *entity.Product) error {
	rec := productRecord{ID: product.ID, Favorites: product.Favorites, UpdatedAt: product.UpdatedAt}
	err := tx.Model(&productRecord{ID: product.ID}).Select("favorites", "updated_at").Updates(&rec).Error
	if err != nil {
		return errors.Internal("Failed to update product favorites", err)
	}
	return nil
}
