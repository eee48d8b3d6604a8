package repository

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

var productOrderings = map[string]string{
	entity.SortNewest:    "created_at DESC",
	entity.SortOldest:    "created_at ASC",
	entity.SortPriceLow:  "price ASC",
	entity.SortPriceHigh: "price DESC",
	entity.SortPopular:   "views DESC",
}

type gormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) repository.ProductRepository {
	return &gormProductRepository{db: db}
}

func (r *gormProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if err := r.db.WithContext(ctx).Create(newProductRecord(product)).Error; err != nil {
		return errors.Internal("Failed to create product", err)
	}
	return nil
}

func (r *gormProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}
	return rec.toEntity(), nil
}

func (r *gormProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&productRecord{})
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.Condition != "" {
			q = q.Where("condition = ?", filter.Condition)
		}
		if filter.MinPrice != nil {
			q = q.Where("price >= ?", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			q = q.Where("price <= ?", *filter.MaxPrice)
		}
		if filter.Search != "" {
			like := containsPattern(strings.ToLower(filter.Search))
			q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR `+
				`LOWER(category) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`,
				like, like, like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, errors.Internal("Failed to count products", err)
	}

	order, ok := productOrderings[filter.SortBy]
	if !ok {
		order = productOrderings[entity.SortNewest]
	}

	q := filtered().Order(order).Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var records []productRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, 0, errors.Internal("Failed to list products", err)
	}
	return productEntities(records), total, nil
}

func (r *gormProductRepository) ListBySellerID(ctx context.Context, sellerID string, statuses []string) ([]*entity.Product, error) {
	q := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var records []productRecord
	if err := q.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, errors.Internal("Failed to list seller products", err)
	}
	return productEntities(records), nil
}

// Update rewrites the editable columns. Views and favorites belong to their
// own operations and are left untouched.
func (r *gormProductRepository) Update(ctx context.Context, product *entity.Product) error {
	rec := newProductRecord(product)
	result := r.db.WithContext(ctx).Model(&productRecord{ID: product.ID}).
		Select("title", "description", "price", "original_price", "category", "condition", "images",
			"location", "status", "tags", "specifications", "negotiable", "delivery_options", "updated_at").
		Updates(rec)
	if result.Error != nil {
		return errors.Internal("Failed to update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Product", nil)
	}
	return nil
}

func (r *gormProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&favoriteRecord{}).Error; err != nil {
			return errors.Internal("Failed to delete product favorites", err)
		}
		result := tx.Where("id = ?", id).Delete(&productRecord{})
		if result.Error != nil {
			return errors.Internal("Failed to delete product", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.NotFound("Product", nil)
		}
		return nil
	})
}

func (r *gormProductRepository) IncrementViews(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return errors.Internal("Failed to increment product views", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("Product", nil)
	}
	return nil
}
