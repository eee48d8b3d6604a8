package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

const productsCollection = "products"

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	_, err := r.client.Collection(productsCollection).Doc(product.ID).Create(ctx, product)
	if err != nil {
		return errors.Internal("Failed to create product", err)
	}
	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	return productFromSnapshot(doc)
}

// List pushes equality filters to Firestore and applies price range, search,
// sorting and pagination in memory. Firestore has no full-text search and
// cannot combine a price range with a different sort field.
func (r *firestoreProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, int64, error) {
	query := r.client.Collection(productsCollection).Query
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.Condition != "" {
		query = query.Where("condition", "==", filter.Condition)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to list products", err)
	}

	matched := make([]*entity.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := productFromSnapshot(doc)
		if err != nil {
			return nil, 0, err
		}
		if matchesProductFilter(product, filter) {
			matched = append(matched, product)
		}
	}

	sortProducts(matched, filter.SortBy)
	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *firestoreProductRepository) ListBySellerID(ctx context.Context, sellerID string, statuses []string) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).Where("sellerId", "==", sellerID)
	if len(statuses) > 0 {
		query = query.Where("status", "in", statuses)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list seller products", err)
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

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	ref := r.client.Collection(productsCollection).Doc(product.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := productFromSnapshot(doc)
		if err != nil {
			return err
		}
		// Counters and favorites are owned by their own operations.
		product.Views = current.Views
		product.Favorites = current.Favorites
		return tx.Set(ref, product)
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Product", err)
		}
		return errors.Internal("Failed to update product", err)
	}
	return nil
}

func (r *firestoreProductRepository) Delete(ctx context.Context, id string) error {
	ref := r.client.Collection(productsCollection).Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return errors.NotFound("Product", err)
		}
		return errors.Internal("Failed to delete product", err)
	}
	return nil
}

func (r *firestoreProductRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.client.Collection(productsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Product", err)
		}
		return errors.Internal("Failed to increment product views", err)
	}
	return nil
}

func productFromSnapshot(doc *firestore.DocumentSnapshot) (*entity.Product, error) {
	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}
	return &product, nil
}
