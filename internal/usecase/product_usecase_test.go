package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellnext/internal/domain/entity"
	"sellnext/pkg/errors"
)

func TestCreateProductDefaults(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	original := 400.0

	product, err := f.products.CreateProduct(f.ctx, seller.ID, CreateProductInput{
		Title:         "  Standing Desk ",
		Description:   "Electric standing desk, barely used",
		Price:         300,
		OriginalPrice: &original,
		Category:      "Home & Garden",
		Condition:     "Like New",
		Images:        []string{"https://img.example.com/desk.jpg"},
		Location:      "Springfield",
		Tags:          []string{"Desk", " office ", "desk", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, "Standing Desk", product.Title)
	assert.Equal(t, entity.ProductStatusActive, product.Status)
	assert.True(t, product.Negotiable)
	assert.Equal(t, []string{"pickup"}, product.DeliveryOptions)
	assert.Equal(t, []string{"desk", "office"}, product.Tags)
	assert.Equal(t, 25, product.DiscountPercentage)
	assert.Equal(t, 0, product.FavoritesCount)
	require.NotNil(t, product.Seller)
	assert.Equal(t, seller.ID, product.Seller.ID)
}

func TestGetProductCountsViews(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	created := f.listProduct(t, seller.ID, "Guitar", 150)

	first, err := f.products.GetProduct(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Views)

	second, err := f.products.GetProduct(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Views)

	_, err = f.products.GetProduct(f.ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestListProductsFiltersAndPagination(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	f.listProduct(t, seller.ID, "Phone", 200)
	f.listProduct(t, seller.ID, "Laptop", 900)
	tablet := f.listProduct(t, seller.ID, "Tablet", 350)

	sold := entity.ProductStatusSold
	_, err := f.products.UpdateProduct(f.ctx, seller.ID, tablet.ID, UpdateProductInput{Status: &sold})
	require.NoError(t, err)

	page, err := f.products.ListProducts(f.ctx, ListProductsInput{Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.TotalProducts)
	require.Len(t, page.Products, 2)
	// newest first by default
	assert.Equal(t, "Laptop", page.Products[0].Title)

	low, err := f.products.ListProducts(f.ctx, ListProductsInput{SortBy: entity.SortPriceLow, Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, "Phone", low.Products[0].Title)

	minPrice := 500.0
	expensive, err := f.products.ListProducts(f.ctx, ListProductsInput{MinPrice: &minPrice, Page: 1, Limit: 12})
	require.NoError(t, err)
	require.Len(t, expensive.Products, 1)
	assert.Equal(t, "Laptop", expensive.Products[0].Title)

	search, err := f.products.ListProducts(f.ctx, ListProductsInput{Search: "PHONE", Page: 1, Limit: 12})
	require.NoError(t, err)
	require.Len(t, search.Products, 1)
	assert.Equal(t, "Phone", search.Products[0].Title)

	paged, err := f.products.ListProducts(f.ctx, ListProductsInput{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged.Products, 1)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, TotalProducts: 2, HasNext: false, HasPrev: true}, paged.Pagination)
}

func TestListProductsSearchTreatsWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	f.listProduct(t, seller.ID, "Phone", 200)
	f.listProduct(t, seller.ID, "Lamp 50% off", 20)

	underscore, err := f.products.ListProducts(f.ctx, ListProductsInput{Search: "_", Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Empty(t, underscore.Products)
	assert.Zero(t, underscore.Pagination.TotalProducts)

	percent, err := f.products.ListProducts(f.ctx, ListProductsInput{Search: "%", Page: 1, Limit: 12})
	require.NoError(t, err)
	require.Len(t, percent.Products, 1)
	assert.Equal(t, "Lamp 50% off", percent.Products[0].Title)
}

func TestListSellerProductsIncludesSold(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	f.listProduct(t, seller.ID, "Lamp", 20)
	chair := f.listProduct(t, seller.ID, "Chair", 45)
	rug := f.listProduct(t, seller.ID, "Rug", 60)

	sold, inactive := entity.ProductStatusSold, entity.ProductStatusInactive
	_, err := f.products.UpdateProduct(f.ctx, seller.ID, chair.ID, UpdateProductInput{Status: &sold})
	require.NoError(t, err)
	_, err = f.products.UpdateProduct(f.ctx, seller.ID, rug.ID, UpdateProductInput{Status: &inactive})
	require.NoError(t, err)

	products, err := f.products.ListSellerProducts(f.ctx, seller.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(products))
	for _, p := range products {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"Lamp", "Chair"}, titles)
}

func TestUpdateProductOwnership(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	other := f.signup(t, "Bob Buyer")
	product := f.listProduct(t, seller.ID, "Kettle", 15)

	price := 12.0
	_, err := f.products.UpdateProduct(f.ctx, other.ID, product.ID, UpdateProductInput{Price: &price})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.favorites.AddFavorite(f.ctx, other.ID, product.ID)
	require.NoError(t, err)

	title := "Electric Kettle"
	updated, err := f.products.UpdateProduct(f.ctx, seller.ID, product.ID, UpdateProductInput{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Electric Kettle", updated.Title)
	assert.Equal(t, 12.0, updated.Price)

	// favorites survive an edit
	reloaded, err := f.products.GetProduct(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.FavoritesCount)
	assert.Equal(t, "Electric Kettle", reloaded.Title)
}

func TestDeleteProductOwnership(t *testing.T) {
	f := newFixture(t)
	seller := f.signup(t, "Alice Seller")
	other := f.signup(t, "Bob Buyer")
	product := f.listProduct(t, seller.ID, "Toaster", 25)

	err := f.products.DeleteProduct(f.ctx, other.ID, product.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	require.NoError(t, f.products.DeleteProduct(f.ctx, seller.ID, product.ID))

	_, err = f.products.GetProduct(f.ctx, product.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	err = f.products.DeleteProduct(f.ctx, seller.ID, product.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
